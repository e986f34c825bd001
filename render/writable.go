package render

// Writable renders a fragment into a writer. Templates embed one with $W;
// the engine runs it under a scoped writer state so indentation changes
// inside the fragment cannot leak out.
type Writable func(w *GoWriter) error

// Noop writes nothing.
func Noop() Writable {
	return func(*GoWriter) error { return nil }
}

// Join renders parts in order with sep between consecutive non-empty
// renders.
func Join(sep string, parts ...Writable) Writable {
	return func(w *GoWriter) error {
		wrote := false
		for _, part := range parts {
			fragment, err := w.Peek(part)
			if err != nil {
				return err
			}
			if fragment == "" {
				continue
			}
			if wrote {
				w.writeText(sep)
			}
			if err := part(w); err != nil {
				return err
			}
			wrote = true
		}
		return nil
	}
}

// ForEach renders fn once per item.
func ForEach[T any](items []T, fn func(w *GoWriter, item T) error) Writable {
	return func(w *GoWriter) error {
		for _, item := range items {
			if err := fn(w, item); err != nil {
				return err
			}
		}
		return nil
	}
}
