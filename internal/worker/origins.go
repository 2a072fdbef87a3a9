package worker

import (
	"errors"
	"slices"

	"fareglitch/internal/domain/value"
)

// AddOrigins appends valid airport codes that are not yet in the rotation.
// Invalid codes are skipped and reported together.
func (w *Scheduler) AddOrigins(codes ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error

	for _, raw := range codes {
		code, err := value.ParseAirportCode(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !slices.Contains(w.origins, code) {
			w.origins = append(w.origins, code)
		}
	}

	return errors.Join(errs...)
}

// RemoveOrigin reports whether the code was in the rotation.
func (w *Scheduler) RemoveOrigin(code string) bool {
	code, err := value.ParseAirportCode(code)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	i := slices.Index(w.origins, code)
	if i < 0 {
		return false
	}

	w.origins = slices.Delete(w.origins, i, i+1)
	if i < w.cursor {
		w.cursor--
	}
	if w.cursor >= len(w.origins) {
		w.cursor = 0
	}

	return true
}

// Origins returns a copy of the rotation.
func (w *Scheduler) Origins() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.origins)
}

// SetOrigins replaces the rotation and restarts it from the first code.
func (w *Scheduler) SetOrigins(codes []string) error {
	w.mu.Lock()
	w.origins = nil
	w.cursor = 0
	w.mu.Unlock()

	return w.AddOrigins(codes...)
}

func (w *Scheduler) ClearOrigins() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.origins = nil
	w.cursor = 0
}

func (w *Scheduler) HasOrigin(code string) bool {
	code, err := value.ParseAirportCode(code)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Contains(w.origins, code)
}
