package domain

// Stage errors classify a pipeline failure by the stage that produced
// it. They wrap the underlying cause and are matched with errors.As
// when the run result is mapped to an exit code.

type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string { return "transcode: " + e.Err.Error() }

func (e *TranscodeError) Unwrap() error { return e.Err }

type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string { return "recognition: " + e.Err.Error() }

func (e *RecognitionError) Unwrap() error { return e.Err }

type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }
