package domain

type RecognitionStatus string

const (
	RecognitionStatusRecognized RecognitionStatus = "recognized"
	RecognitionStatusNoSpeech   RecognitionStatus = "no_speech"
	RecognitionStatusFailure    RecognitionStatus = "service_failure"
)

// RecognitionOutcome is the verdict of a speech recognition attempt.
// NoSpeech is a successful call that found nothing to transcribe and
// must never be treated as a failure.
type RecognitionOutcome struct {
	Status RecognitionStatus
	Text   string
	Reason string
}

func Recognized(text string) RecognitionOutcome {
	return RecognitionOutcome{Status: RecognitionStatusRecognized, Text: text}
}

func NoSpeech() RecognitionOutcome {
	return RecognitionOutcome{Status: RecognitionStatusNoSpeech}
}

func ServiceFailure(reason string) RecognitionOutcome {
	return RecognitionOutcome{Status: RecognitionStatusFailure, Reason: reason}
}
