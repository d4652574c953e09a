package source

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nhle/pulse/internal/model"
)

var timeType = reflect.TypeOf(time.Time{})

// timeLayouts are the date formats accepted in string fields.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeHook converts strings and epoch milliseconds into time.Time.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch v := data.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("unrecognised time %q", v)
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case map[string]any:
		return timestampMap(v)
	}
	return nil, fmt.Errorf("unsupported time value %T", data)
}

// timestampMap reads a {seconds, nanoseconds} timestamp object. The
// underscore-prefixed keys are the admin SDK spelling.
func timestampMap(m map[string]any) (time.Time, error) {
	secs, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp object without seconds")
	}
	nanos, _ := number(m, "nanoseconds", "_nanoseconds", "nanos")
	return time.Unix(secs, nanos).UTC(), nil
}

func number(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		}
	}
	return 0, false
}

// DecodeRecord decodes doc into out. Field types are coerced loosely
// (numbers held as strings, dates as strings or epoch milliseconds).
func DecodeRecord(doc model.Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("%w: document %q: %v", ErrMalformedRecord, doc.ID(), err)
	}
	return nil
}

// hasStatus reports whether doc carries a non-empty string status.
func hasStatus(doc model.Document) bool {
	s, ok := doc["status"].(string)
	return ok && s != ""
}

// decodeLoose decodes doc into out, leaving any field that will not
// decode at its zero value. It returns the keys that were dropped.
func decodeLoose[T any](doc model.Document, out *T) []string {
	if err := DecodeRecord(doc, out); err == nil {
		return nil
	}
	var zero T
	*out = zero
	var dropped []string
	for k, v := range doc {
		if err := DecodeRecord(model.Document{k: v}, out); err != nil {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// decodeAll decodes every document of one collection. Only a missing
// status makes a document malformed; detail fields are best-effort.
func decodeAll[T any](docs []model.Document, needStatus bool) ([]T, int) {
	out := make([]T, 0, len(docs))
	malformed := 0
	for _, doc := range docs {
		if needStatus && !hasStatus(doc) {
			malformed++
			continue
		}
		var rec T
		decodeLoose(doc, &rec)
		out = append(out, rec)
	}
	return out, malformed
}

// DecodeSnapshot turns raw documents keyed by collection into a typed
// snapshot.
func DecodeSnapshot(raw map[model.Collection][]model.Document, fetchedAt time.Time) *model.Snapshot {
	snap := &model.Snapshot{FetchedAt: fetchedAt}
	var n int

	snap.Maintenance, n = decodeAll[model.MaintenanceRequest](raw[model.CollectionMaintenance], true)
	snap.Malformed += n
	snap.Cleanings, n = decodeAll[model.Cleaning](raw[model.CollectionCleanings], true)
	snap.Malformed += n
	snap.Inspections, n = decodeAll[model.Inspection](raw[model.CollectionInspections], true)
	snap.Malformed += n
	snap.Invoices, n = decodeAll[model.Invoice](raw[model.CollectionInvoices], true)
	snap.Malformed += n
	snap.Buildings, n = decodeAll[model.Building](raw[model.CollectionBuildings], false)
	snap.Malformed += n

	return snap
}
