package model

// PredictRequest carries the secondary hand as 21 [x,y,z] triples.
type PredictRequest struct {
	Left21 [][]float64 `json:"left21"`
}

type PredictResponse struct {
	Quality string `json:"quality"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
