package sqlinline

import (
	"testing"

	"assetgen/internal/infra"
)

func TestQueriesCarryUniqueMarkers(t *testing.T) {
	queries := map[string]string{
		"QSelectProviderToken": QSelectProviderToken,
		"QUpsertProviderToken": QUpsertProviderToken,
		"QInsertBatchRun":      QInsertBatchRun,
		"QInsertBatchOutcome":  QInsertBatchOutcome,
		"QCreateLedgerSchema":  QCreateLedgerSchema,
	}
	seen := map[string]string{}
	for name, q := range queries {
		marker, body, err := infra.ExtractMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if body == "" {
			t.Fatalf("%s: empty body", name)
		}
		if other, ok := seen[marker]; ok {
			t.Fatalf("%s reuses marker of %s", name, other)
		}
		seen[marker] = name
	}
}
