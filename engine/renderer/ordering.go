package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"go.uber.org/zap"
)

// graphEdge is a producer to consumer edge between two passes of the graph.
type graphEdge struct {
	producer pipeline.Pass
	consumer pipeline.Pass
	input    string
}

func (r *renderer) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked()
}

func (r *renderer) AssignOrderKeys() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := make(map[string]int, len(r.passes))
	for i, p := range r.passes {
		index[p.Name()] = i
	}

	indegree := make([]int, len(r.passes))
	consumers := make([][]int, len(r.passes))
	seen := make(map[[2]int]struct{})
	for _, e := range r.edgesLocked() {
		pi, ci := index[e.producer.Name()], index[e.consumer.Name()]
		if _, ok := seen[[2]int{pi, ci}]; ok {
			continue
		}
		seen[[2]int{pi, ci}] = struct{}{}
		consumers[pi] = append(consumers[pi], ci)
		indegree[ci]++
	}

	var ready []int
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(r.passes))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(a, b int) bool {
			ka, kb := r.passes[ready[a]].OrderKey(), r.passes[ready[b]].OrderKey()
			if ka != kb {
				return ka < kb
			}
			return ready[a] < ready[b]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, c := range consumers[next] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) < len(r.passes) {
		var cycle []string
		for i, d := range indegree {
			if d > 0 {
				cycle = append(cycle, r.passes[i].Name())
			}
		}
		return &OrderingViolation{Cycle: cycle}
	}

	for key, i := range order {
		r.passes[i].SetOrderKey(key + 1)
	}
	r.validatedSig = ""
	common.Logger().Debug("order keys assigned", zap.Int("passes", len(order)))
	return nil
}

// validateLocked returns an *OrderingViolation listing every edge whose producer key is not
// strictly less than its consumer key. Caller must hold the mutex.
func (r *renderer) validateLocked() error {
	var bad []OrderingEdge
	for _, e := range r.edgesLocked() {
		pk, ck := e.producer.OrderKey(), e.consumer.OrderKey()
		if pk < ck {
			continue
		}
		bad = append(bad, OrderingEdge{
			Producer:    e.producer.Name(),
			Consumer:    e.consumer.Name(),
			ProducerKey: pk,
			ConsumerKey: ck,
			Input:       e.input,
		})
	}
	if len(bad) == 0 {
		return nil
	}
	violation := &OrderingViolation{Edges: bad}
	common.Logger().Error("pipeline ordering violation", zap.Error(violation))
	return violation
}

// edgesLocked returns the edges of the graph in insertion order of the consumers. Texture inputs
// produced by a target no pass renders into (loaded assets) and a pass reading its own target
// (previous-frame feedback) contribute no edge. Caller must hold the mutex.
func (r *renderer) edgesLocked() []graphEdge {
	var edges []graphEdge
	for _, consumer := range r.passes {
		inputs := consumer.Inputs()
		names := make([]string, 0, len(inputs))
		for name := range inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			in := inputs[name]
			if !in.IsTexture() || in.Texture == nil {
				continue
			}
			producer, ok := r.byTarget[in.Texture.Producer()]
			if !ok || producer == consumer {
				continue
			}
			edges = append(edges, graphEdge{producer: producer, consumer: consumer, input: name})
		}
		for _, after := range consumer.After() {
			producer, ok := r.byName[after]
			if !ok || producer == consumer {
				continue
			}
			edges = append(edges, graphEdge{producer: producer, consumer: consumer, input: "after"})
		}
	}
	return edges
}

// graphSignatureLocked summarizes order keys and texture producers so Run can skip validation
// while the graph is unchanged. Caller must hold the mutex.
func (r *renderer) graphSignatureLocked() string {
	var sb strings.Builder
	for _, p := range r.passes {
		fmt.Fprintf(&sb, "%s=%d[%s]", p.Name(), p.OrderKey(), strings.Join(p.Dependencies(), ","))
	}
	return sb.String()
}
