/*
Package server implements msgpack IPC for endpoint prediction.

The server answers requests against one trained engine using msgpack
serialization over stdin/stdout. Messages are processed synchronously with
timing info included in responses.

# IPC

Clients write a stream of msgpack maps to stdin and read one response map
per request from stdout. Every request carries an ID and an action:

	{"id": "req_001", "action": "predict", "limit": 20}
	{"id": "req_002", "action": "next", "path": "/api/v1", "k": 3}
	{"id": "req_003", "action": "score", "path": "/api/v1/orders"}
	{"id": "req_004", "action": "stats"}

Ranked candidates come back with their probabilities:

	{"id": "req_001", "s": [{"p": "/api/v1/orders", "pr": 0.00525, "o": "generated"}], "c": 1, "t": 145}

Next-token predictions use the same shape with tokens instead of paths:

	{"id": "req_002", "s": [{"t": "products", "pr": 0.2857, "n": 1}], "c": 1, "t": 12}

A failed request is answered with an error message instead:

	{"id": "req_005", "e": "unknown action \"train\"", "c": 400}

Times are in microseconds. On start the server writes {"status": "ready"}.
*/
package server

// Request is the single request shape for every action.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Path   string `msgpack:"path,omitempty"`
	K      int    `msgpack:"k,omitempty"`
	Limit  int    `msgpack:"limit,omitempty"`
	// Threshold may only tighten the engine's threshold.
	Threshold *float64 `msgpack:"threshold,omitempty"`
}

// Candidate is one ranked path.
type Candidate struct {
	Path        string  `msgpack:"p"`
	Probability float64 `msgpack:"pr"`
	Origin      string  `msgpack:"o,omitempty"`
}

// PredictResponse lists ranked candidates.
type PredictResponse struct {
	ID         string      `msgpack:"id"`
	Candidates []Candidate `msgpack:"s"`
	Count      int         `msgpack:"c"`
	TimeTaken  int64       `msgpack:"t"`
}

// Prediction is one next-token continuation.
type Prediction struct {
	Token       string  `msgpack:"t"`
	Probability float64 `msgpack:"pr"`
	Count       int     `msgpack:"n"`
}

// NextResponse lists continuations of a partial path.
type NextResponse struct {
	ID          string       `msgpack:"id"`
	Predictions []Prediction `msgpack:"s"`
	Count       int          `msgpack:"c"`
	TimeTaken   int64        `msgpack:"t"`
}

// ScoreResponse carries the score of one path.
type ScoreResponse struct {
	ID        string    `msgpack:"id"`
	Candidate Candidate `msgpack:"s"`
	TimeTaken int64     `msgpack:"t"`
}

// StatsResponse describes the loaded model.
type StatsResponse struct {
	ID          string  `msgpack:"id"`
	Endpoints   int     `msgpack:"endpoints"`
	Contexts    int     `msgpack:"contexts"`
	Transitions int     `msgpack:"transitions"`
	Vocabulary  int     `msgpack:"vocabulary"`
	Seeds       int     `msgpack:"seeds"`
	Alpha       float64 `msgpack:"alpha"`
	Threshold   float64 `msgpack:"threshold"`
	CacheSize   int     `msgpack:"cache_size"`
	CacheHits   int     `msgpack:"cache_hits"`
}

// StatusResponse is sent once the server is ready.
type StatusResponse struct {
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
