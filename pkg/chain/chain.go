/*
Package chain implements the order-2 Markov model behind endpoint prediction.

The model counts how often each token follows a pair of tokens in the
training endpoints and answers Laplace-smoothed conditional probabilities:

	P(t | c) = (count(c, t) + alpha) / (total(c) + alpha * V)

where V is the vocabulary size. Every token seen at a target position during
training belongs to the vocabulary, including END, so the distribution over
the vocabulary for any context sums to one and never contains a zero.

Training takes the write lock and queries take the read lock. A trained model
can be shared by any number of readers, and Train may be called again to grow
the corpus.
*/
package chain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bastiangx/oracle/pkg/token"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultAlpha is the additive smoothing constant.
const DefaultAlpha = 1.0

var (
	ErrInvalidAlpha      = errors.New("chain: alpha must be a positive finite number")
	ErrMalformedEndpoint = errors.New("chain: malformed endpoint")
)

// Prediction is one continuation of a context with its smoothed probability.
type Prediction struct {
	Token       token.Token
	Probability float64
	Count       int
}

// Stats summarizes the trained model.
type Stats struct {
	Endpoints   int
	Contexts    int
	Transitions int
	Vocabulary  int
}

// Model holds trigram counts and the vocabulary.
type Model struct {
	alpha         float64
	pairCounts    map[token.Context]map[token.Token]int
	contextTotals map[token.Context]int
	vocab         *patricia.Trie
	sortedVocab   []token.Token
	endpoints     int
	transitions   int
	mu            sync.RWMutex
}

// New creates an empty model with the given smoothing constant.
func New(alpha float64) (*Model, error) {
	if !(alpha > 0) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	return &Model{
		alpha:         alpha,
		pairCounts:    make(map[token.Context]map[token.Token]int),
		contextTotals: make(map[token.Context]int),
		vocab:         patricia.NewTrie(),
	}, nil
}

// Train adds endpoints to the counts. Either every endpoint is applied
// or, when one is malformed, none are.
func (m *Model) Train(endpoints ...token.Endpoint) error {
	for i, ep := range endpoints {
		if !ep.Valid() {
			return fmt.Errorf("%w: index %d (%v)", ErrMalformedEndpoint, i, []token.Token(ep))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	grew := false
	for _, ep := range endpoints {
		for i := 2; i < len(ep); i++ {
			ctx := token.Context{ep[i-2], ep[i-1]}
			next := ep[i]

			counts, ok := m.pairCounts[ctx]
			if !ok {
				counts = make(map[token.Token]int)
				m.pairCounts[ctx] = counts
			}
			counts[next]++
			m.contextTotals[ctx]++
			m.transitions++

			if m.vocab.Insert(patricia.Prefix(next.Key()), next) {
				grew = true
			}
		}
		m.endpoints++
	}

	if grew {
		m.rebuildVocab()
	}
	log.Debugf("chain: trained %d endpoints, vocabulary=%d contexts=%d",
		len(endpoints), len(m.sortedVocab), len(m.contextTotals))
	return nil
}

// rebuildVocab refreshes the sorted vocabulary slice. Caller holds the write lock.
func (m *Model) rebuildVocab() {
	vocab := make([]token.Token, 0, len(m.sortedVocab)+8)
	err := m.vocab.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		vocab = append(vocab, item.(token.Token))
		return nil
	})
	if err != nil {
		log.Errorf("chain: visiting vocabulary: %v", err)
	}
	sort.Slice(vocab, func(i, j int) bool {
		return token.Less(vocab[i], vocab[j])
	})
	m.sortedVocab = vocab
}

// Alpha returns the smoothing constant.
func (m *Model) Alpha() float64 {
	return m.alpha
}

// VocabularySize is V in the smoothing denominator.
func (m *Model) VocabularySize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sortedVocab)
}

// Vocabulary returns a copy of the vocabulary ordered by token key.
func (m *Model) Vocabulary() []token.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]token.Token, len(m.sortedVocab))
	copy(out, m.sortedVocab)
	return out
}

// Known reports whether t is in the vocabulary.
func (m *Model) Known(t token.Token) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vocab.Match(patricia.Prefix(t.Key()))
}

// LiteralsWithPrefix lists literal vocabulary tokens starting with prefix.
func (m *Model) LiteralsWithPrefix(prefix string) []token.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []token.Token
	err := m.vocab.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		if t := item.(token.Token); !t.IsSentinel() {
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		log.Errorf("chain: visiting vocabulary subtree %q: %v", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool {
		return token.Less(out[i], out[j])
	})
	return out
}

// Count is the number of times next followed ctx in training.
func (m *Model) Count(ctx token.Context, next token.Token) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pairCounts[ctx][next]
}

// Total is the number of tokens observed after ctx.
func (m *Model) Total(ctx token.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contextTotals[ctx]
}

// Probability returns the smoothed P(next | ctx). It is strictly positive
// for any context and token once the model has a vocabulary.
func (m *Model) Probability(ctx token.Context, next token.Token) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.probability(ctx, next)
}

// LogProbability is the natural log of Probability.
func (m *Model) LogProbability(ctx token.Context, next token.Token) float64 {
	return math.Log(m.Probability(ctx, next))
}

func (m *Model) probability(ctx token.Context, next token.Token) float64 {
	v := len(m.sortedVocab)
	if v == 0 {
		return 0
	}
	count := m.pairCounts[ctx][next]
	total := m.contextTotals[ctx]
	return (float64(count) + m.alpha) / (float64(total) + m.alpha*float64(v))
}

// Distribution maps every vocabulary token, END included, to P(token | ctx).
func (m *Model) Distribution(ctx token.Context) map[token.Token]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dist := make(map[token.Token]float64, len(m.sortedVocab))
	for _, t := range m.sortedVocab {
		dist[t] = m.probability(ctx, t)
	}
	return dist
}

// Ranked returns the distribution ordered by probability, highest first.
// Ties put END first and then follow token key order, so an unseen context,
// where every token is equally likely, prefers to terminate.
func (m *Model) Ranked(ctx token.Context) []Prediction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := m.pairCounts[ctx]
	preds := make([]Prediction, 0, len(m.sortedVocab))
	for _, t := range m.sortedVocab {
		preds = append(preds, Prediction{
			Token:       t,
			Probability: m.probability(ctx, t),
			Count:       counts[t],
		})
	}
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if (a.Token == token.EndToken) != (b.Token == token.EndToken) {
			return a.Token == token.EndToken
		}
		return token.Less(a.Token, b.Token)
	})
	return preds
}

// Top returns at most k entries of Ranked.
func (m *Model) Top(ctx token.Context, k int) []Prediction {
	preds := m.Ranked(ctx)
	if k > 0 && len(preds) > k {
		preds = preds[:k]
	}
	return preds
}

// Stats returns counters describing the trained corpus.
func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Endpoints:   m.endpoints,
		Contexts:    len(m.contextTotals),
		Transitions: m.transitions,
		Vocabulary:  len(m.sortedVocab),
	}
}
