package visitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
	"github.com/carbonfmt/carbon/strid"
)

// recorder collects every visited property as "path.key=value" for
// order-independent assertions.
type recorder struct {
	props   []string
	objects int
	exclude map[string]bool
}

func (r *recorder) BeforeObject(path []string, objectID uint64) Decision {
	r.objects++
	return Include
}

func (r *recorder) OnProperty(path []string, key string, t carbon.BasicType, isArray bool, value interface{}) {
	full := strings.Join(append(append([]string{}, path...), key), ".")
	r.props = append(r.props, fmt.Sprintf("%s=%v", full, value))
}

func (r *recorder) BeforeArrayOfObjects(path []string, key string) Decision {
	full := strings.Join(append(append([]string{}, path...), key), ".")
	if r.exclude[full] {
		return Exclude
	}
	return Include
}

func buildOpenIdx(t *testing.T, json string) (*archive.Archive, *strid.Index) {
	t.Helper()
	data, err := archive.Build([]byte(json), archive.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.carbon")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a, err := archive.Open(path, archive.OpenOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	idx, err := strid.NewIndex(a, 0)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return a, idx
}

func TestDriverWalkNestedObject(t *testing.T) {
	a, idx := buildOpenIdx(t, `{"a":1,"child":{"b":2}}`)
	rec := &recorder{}
	d := NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, rec); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if rec.objects != 2 {
		t.Fatalf("expected 2 objects visited (root + child), got %d", rec.objects)
	}
	joined := strings.Join(rec.props, "|")
	if !strings.Contains(joined, "a=1") {
		t.Errorf("expected a=1 in %v", rec.props)
	}
	if !strings.Contains(joined, "child.b=2") {
		t.Errorf("expected child.b=2 in %v", rec.props)
	}
}

func TestDriverWalkColumnGroup(t *testing.T) {
	a, idx := buildOpenIdx(t, `{"os":[{"a":1},{"a":2,"b":3}]}`)
	rec := &recorder{}
	d := NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, rec); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	joined := strings.Join(rec.props, "|")
	for _, want := range []string{"os.0.a=1", "os.1.a=2", "os.1.b=3"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %v", want, rec.props)
		}
	}
}

func TestDriverExcludeArrayOfObjects(t *testing.T) {
	a, idx := buildOpenIdx(t, `{"os":[{"a":1}],"kept":5}`)
	rec := &recorder{exclude: map[string]bool{"os": true}}
	d := NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, rec); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	joined := strings.Join(rec.props, "|")
	if strings.Contains(joined, "os.") {
		t.Errorf("expected os subtree excluded, got %v", rec.props)
	}
	if !strings.Contains(joined, "kept=5") {
		t.Errorf("expected kept=5, got %v", rec.props)
	}
}
