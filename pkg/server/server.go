package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bastiangx/oracle/pkg/fuzz"
	"github.com/bastiangx/oracle/pkg/oracle"
	"github.com/bastiangx/oracle/pkg/score"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	defaultK         = 5
	maxK             = 64
	maxPathLength    = 2048
	defaultCacheSize = 256
)

// Server handles msgpack IPC for one engine.
type Server struct {
	engine *oracle.Engine
	aug    fuzz.Augmenter
	dec    *msgpack.Decoder
	out    *bufio.Writer
	enc    *msgpack.Encoder
	cache  *lruCache
}

// NewServer creates a server on stdin/stdout. aug may be nil.
func NewServer(engine *oracle.Engine, aug fuzz.Augmenter) *Server {
	return NewServerWithIO(engine, aug, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on the given streams.
func NewServerWithIO(engine *oracle.Engine, aug fuzz.Augmenter, r io.Reader, w io.Writer) *Server {
	out := bufio.NewWriter(w)
	return &Server{
		engine: engine,
		aug:    aug,
		dec:    msgpack.NewDecoder(bufio.NewReader(r)),
		out:    out,
		enc:    msgpack.NewEncoder(out),
		cache:  newLRUCache(defaultCacheSize),
	}
}

// Start answers requests until the input ends or ctx is cancelled.
// A message that is valid msgpack but not a request gets an error reply;
// a broken stream ends the loop with an error.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting server.")
	s.send(StatusResponse{Status: "ready"})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw msgpack.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request: %v", err)
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			log.Debugf("Malformed request: %v", err)
			s.sendError("", "malformed request", 400)
			continue
		}
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	switch req.Action {
	case "predict":
		s.handlePredict(ctx, req)
	case "next":
		s.handleNext(req)
	case "score":
		s.handleScore(req)
	case "stats":
		s.handleStats(req)
	case "health":
		s.send(StatusResponse{Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action %q", req.Action), 400)
	}
}

func (s *Server) handlePredict(ctx context.Context, req Request) {
	start := time.Now()
	threshold := s.engine.Options().Threshold
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			s.sendError(req.ID, "threshold outside [0, 1]", 400)
			return
		}
		threshold = max(threshold, *req.Threshold)
	}

	var cands []score.Candidate
	if cached, ok := s.cache.get("predict"); ok {
		cands = cached.([]score.Candidate)
	} else {
		var err error
		cands, err = s.engine.Predict(ctx, s.aug)
		if err != nil {
			log.Errorf("Predict failed: %v", err)
			s.sendError(req.ID, "prediction failed", 500)
			return
		}
		s.cache.put("predict", cands)
	}

	out := selectCandidates(cands, threshold, req.Limit)
	s.send(PredictResponse{
		ID:         req.ID,
		Candidates: out,
		Count:      len(out),
		TimeTaken:  time.Since(start).Microseconds(),
	})
}

func (s *Server) handleNext(req Request) {
	if len(req.Path) > maxPathLength {
		s.sendError(req.ID, fmt.Sprintf("path exceeds %d characters", maxPathLength), 400)
		return
	}
	k := req.K
	if k < 1 {
		k = defaultK
	}
	k = min(k, maxK)

	start := time.Now()
	key := "next\x00" + strconv.Itoa(k) + "\x00" + req.Path
	var preds []Prediction
	if cached, ok := s.cache.get(key); ok {
		preds = cached.([]Prediction)
	} else {
		for _, p := range s.engine.Next(req.Path, k) {
			preds = append(preds, Prediction{
				Token:       p.Token.String(),
				Probability: p.Probability,
				Count:       p.Count,
			})
		}
		s.cache.put(key, preds)
	}
	s.send(NextResponse{
		ID:          req.ID,
		Predictions: preds,
		Count:       len(preds),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleScore(req Request) {
	if req.Path == "" {
		s.sendError(req.ID, "missing 'path' parameter", 400)
		return
	}
	if len(req.Path) > maxPathLength {
		s.sendError(req.ID, fmt.Sprintf("path exceeds %d characters", maxPathLength), 400)
		return
	}
	start := time.Now()
	c := s.engine.Score(req.Path)
	if c.Endpoint.Len() == 0 {
		s.sendError(req.ID, "path has no segments", 400)
		return
	}
	s.send(ScoreResponse{
		ID:        req.ID,
		Candidate: toCandidate(c),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleStats(req Request) {
	st := s.engine.Stats()
	opts := s.engine.Options()
	size, hits := s.cache.stats()
	s.send(StatsResponse{
		ID:          req.ID,
		Endpoints:   st.Endpoints,
		Contexts:    st.Contexts,
		Transitions: st.Transitions,
		Vocabulary:  st.Vocabulary,
		Seeds:       st.Seeds,
		Alpha:       opts.Alpha,
		Threshold:   opts.Threshold,
		CacheSize:   size,
		CacheHits:   hits,
	})
}

// selectCandidates applies the request threshold in log space, the way
// the engine filters, then the limit.
func selectCandidates(cands []score.Candidate, threshold float64, limit int) []Candidate {
	kept := score.Filter(cands, threshold)
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]Candidate, 0, len(kept))
	for _, c := range kept {
		out = append(out, toCandidate(c))
	}
	return out
}

func toCandidate(c score.Candidate) Candidate {
	return Candidate{Path: c.Path, Probability: c.Probability, Origin: c.Origin.String()}
}

// send encodes one response and flushes it.
func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
