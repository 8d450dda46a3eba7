package similarity

import (
	"math"
	"sort"
)

// SparseVector is a raw term-count vector. Indices are vocabulary positions
// in ascending order; Counts holds the matching counts.
type SparseVector struct {
	Indices []int
	Counts  []float64
}

// Norm returns the L2 norm of v.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, c := range v.Counts {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of a and b.
func Dot(a, b SparseVector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Counts[i] * b.Counts[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine returns dot(a,b)/(|a||b|), or 0 when either vector is zero.
func Cosine(a, b SparseVector) float64 {
	den := a.Norm() * b.Norm()
	if den == 0 {
		return 0
	}
	return Dot(a, b) / den
}

// Vectorizer maps text onto a fixed, sorted vocabulary.
type Vectorizer struct {
	vocab map[string]int
	terms []string
}

// FitVectorizer builds the vocabulary from every token of every document.
// Terms are sorted so column order is stable across runs.
func FitVectorizer(docs []string) *Vectorizer {
	seen := map[string]struct{}{}
	for _, d := range docs {
		for _, tok := range Tokenize(d) {
			seen[tok] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return &Vectorizer{vocab: vocab, terms: terms}
}

// Terms returns the vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Transform returns the term-count vector of text. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := map[int]float64{}
	for _, tok := range Tokenize(text) {
		if i, ok := v.vocab[tok]; ok {
			counts[i]++
		}
	}
	idx := make([]int, 0, len(counts))
	for i := range counts {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := SparseVector{Indices: idx, Counts: make([]float64, len(idx))}
	for k, i := range idx {
		out.Counts[k] = counts[i]
	}
	return out
}
