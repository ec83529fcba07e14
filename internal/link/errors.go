package link

import "errors"

// Stage names the internal pipeline step a decode failed at. Stages exist
// for diagnostics and metrics only: callers see one error kind and treat
// every variant as "no valid game state present".
type Stage string

const (
	StageEncoding   Stage = "encoding"
	StageIntegrity  Stage = "integrity"
	StageDecrypt    Stage = "decrypt"
	StageDecompress Stage = "decompress"
	StageParse      Stage = "parse"
	StageSchema     Stage = "schema"
)

// DecodeError is the single outer error kind for a token that cannot be
// turned into a valid state. Partial or garbled states are never exposed.
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return "invalid or corrupted link (" + string(e.Stage) + "): " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is any stage of decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func decodeFail(stage Stage, err error) error {
	DecodeFailures.WithLabelValues(string(stage)).Inc()
	return &DecodeError{Stage: stage, Err: err}
}
