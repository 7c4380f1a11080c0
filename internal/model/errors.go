package model

import "errors"

// Sentinel errors per the error taxonomy: ConfigInvalid and TemplateParse
// are fatal at startup; the rest are per-request or per-sink and are
// recovered from on the hot path.
var (
	ErrConfigInvalid     = errors.New("config invalid")
	ErrTemplateParse     = errors.New("template parse failed")
	ErrTransport         = errors.New("transport error")
	ErrHTTPStatusFailure = errors.New("http status failure")
	ErrExtractorMiss     = errors.New("extractor miss")
	ErrDataProviderError = errors.New("data provider error")
	ErrSinkWriteFailure  = errors.New("sink write failure")
	ErrHubAdmission      = errors.New("hub admission error")
	ErrNodeProtocol      = errors.New("node protocol error")
)
