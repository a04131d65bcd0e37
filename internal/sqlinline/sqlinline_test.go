package sqlinline

import (
	"regexp"
	"strings"
	"testing"
)

var marker = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestQueriesCarryUniqueMarkers(t *testing.T) {
	queries := map[string]string{
		"QSelectProviderKey":   QSelectProviderKey,
		"QPutProviderKey":      QPutProviderKey,
		"QDeleteProviderKey":   QDeleteProviderKey,
		"QInsertEditAttempt":   QInsertEditAttempt,
		"QCompleteEditAttempt": QCompleteEditAttempt,
		"QListEditAttempts":    QListEditAttempts,
		"QEnsureSchema":        QEnsureSchema,
	}
	seen := map[string]string{}
	for name, q := range queries {
		first := strings.SplitN(strings.TrimSpace(q), "\n", 2)[0]
		if !marker.MatchString(first) {
			t.Fatalf("%s: invalid marker line %q", name, first)
		}
		if other, ok := seen[first]; ok {
			t.Fatalf("%s reuses the marker of %s", name, other)
		}
		seen[first] = name
	}
}
