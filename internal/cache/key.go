package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key builds a deterministic cache key for an operation and its filter
// parameters: the md5 fingerprint of the sorted k=v pairs, prefixed with the
// operation name. Identical parameter sets always map to the same key and
// any differing parameter yields a different one.
func Key(op string, params map[string]string) string {
	if len(params) == 0 {
		return op
	}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	sum := md5.Sum([]byte(strings.Join(pairs, "&")))
	return fmt.Sprintf("%s:%s", op, hex.EncodeToString(sum[:]))
}
