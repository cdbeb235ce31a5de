package constants

import "os"

// GetConfigPath returns the config file named by HANDCOMPOSER_CONFIG, or "".
func GetConfigPath() string {
	return os.Getenv("HANDCOMPOSER_CONFIG")
}

const NumLandmarks = 21

const MaxHands = 2

// landmark 0 is the wrist; 4, 8, 12, 16, 20 are the fingertips
const Wrist = 0

var FingerTips = [5]int{4, 8, 12, 16, 20}

// middle C, used as the committed root before the first commit
const DefaultRoot = 60

const DefaultVelocity = 80

const DefaultTempo = 110

const DefaultPortName = "HandComposer"

var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
