package util

func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}
	*s = (*s)[:i]
}

// IndexBy builds a lookup map of the records keyed by the result of key. Records with an
// empty key are skipped and later duplicates win.
func IndexBy[T any](records []T, key func(T) string) map[string]T {
	index := make(map[string]T, len(records))

	for _, record := range records {
		k := key(record)
		if k == "" {
			continue
		}

		index[k] = record
	}

	return index
}
