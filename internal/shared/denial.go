package shared

// DenialRecorder counts authorization denials. Satisfied by the metrics
// registry; a nil implementation is a no-op.
type DenialRecorder interface {
	RecordDenial(permission string)
}

// NopDenialRecorder discards denial counts.
type NopDenialRecorder struct{}

func (NopDenialRecorder) RecordDenial(string) {}
