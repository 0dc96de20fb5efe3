/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// PageRequest describes a zero-based page index, a page size and ordering.
type PageRequest struct {
	index int
	size  int
	sort  Sort
}

// NewPageRequest constructs a PageRequest; call Validate before use.
func NewPageRequest(index int, size int, sort Sort) *PageRequest {
	return &PageRequest{index: index, size: size, sort: sort}
}

// NewDefaultPageRequest constructs an unsorted PageRequest.
func NewDefaultPageRequest(index int, size int) *PageRequest {
	return NewPageRequest(index, size, nil)
}

func (p *PageRequest) GetIndex() int { return p.index }

func (p *PageRequest) GetSize() int { return p.size }

func (p *PageRequest) GetSort() Sort { return p.sort }

// GetOffset is index*size; check Beyond first, the product overflows for
// indexes far past the last page.
func (p *PageRequest) GetOffset() int { return p.index * p.size }

// Beyond reports whether the requested page starts at or after total. The
// request must be valid.
func (p *PageRequest) Beyond(total int) bool {
	return total <= 0 || p.index > (total-1)/p.size
}

// Next returns the request for the following page.
func (p *PageRequest) Next() *PageRequest {
	return NewPageRequest(p.index+1, p.size, p.sort)
}

// Validate rejects negative indexes and non-positive sizes.
func (p *PageRequest) Validate() error {
	if p == nil {
		return NewValidationError("", "nil page request")
	}
	if p.index < 0 {
		return NewValidationError("", "page index must be >= 0")
	}
	if p.size <= 0 {
		return NewValidationError("", "page size must be > 0")
	}
	return p.sort.Validate(nil)
}

// Page holds one slice of a result along with pagination metadata.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int
	Sort          Sort
}

// NewPage wraps already sliced content.
func NewPage[T any](content []T, req *PageRequest, total int) *Page[T] {
	if content == nil {
		content = make([]T, 0)
	}
	return &Page[T]{
		Content:       content,
		Number:        req.GetIndex(),
		Size:          req.GetSize(),
		TotalElements: total,
		Sort:          req.GetSort(),
	}
}

// TotalPages is ceil(TotalElements/Size), zero when there are no elements.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 || p.TotalElements == 0 {
		return 0
	}
	return (p.TotalElements-1)/p.Size + 1
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) HasContent() bool { return len(p.Content) > 0 }

func (p *Page[T]) IsFirst() bool { return p.Number == 0 }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }

func (p *Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

// MapPage converts the content of p, keeping the metadata.
func MapPage[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	out := make([]R, len(p.Content))
	for i, v := range p.Content {
		out[i] = fn(v)
	}
	return &Page[R]{
		Content:       out,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		Sort:          p.Sort,
	}
}

// Paginate sorts matches (stable) by the request's sort and returns the
// requested slice. The input slice is not modified. An index past the end
// yields an empty page. Sort fields are checked with known; see SortStable.
func Paginate[T Fielder](matches []T, req *PageRequest, known func(field string) bool) (*Page[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sorted := make([]T, len(matches))
	copy(sorted, matches)
	if err := SortStable(sorted, req.GetSort(), known); err != nil {
		return nil, err
	}
	if req.Beyond(len(sorted)) {
		return NewPage(make([]T, 0), req, len(sorted)), nil
	}
	start := req.GetOffset()
	end := len(sorted)
	if rest := end - start; req.GetSize() < rest {
		end = start + req.GetSize()
	}
	content := make([]T, end-start)
	copy(content, sorted[start:end])
	return NewPage(content, req, len(sorted)), nil
}
