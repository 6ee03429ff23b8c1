package autoinclude

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptconduit/dashctx/internal/contextcfg"
)

// fakeContent is an in-memory repository that counts listings
type fakeContent struct {
	files []string
	lists atomic.Int32
}

func (f *fakeContent) Exists(name string) bool {
	name = strings.TrimSuffix(name, "/")
	for _, file := range f.files {
		if file == name || strings.HasPrefix(file, name+"/") {
			return true
		}
	}
	return false
}

func (f *fakeContent) Open(name string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeContent) List(dir string) ([]string, error) {
	f.lists.Add(1)
	var out []string
	for _, file := range f.files {
		if rel, ok := strings.CutPrefix(file, dir+"/"); ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

type fakeBroker struct {
	present bool
	queries map[string][]string
	failing map[string]bool
	calls   atomic.Int32
}

func (b *fakeBroker) PluginPresent(ctx context.Context) bool {
	return b.present
}

func (b *fakeBroker) QueriesFor(ctx context.Context, descriptorPath string) ([]string, error) {
	b.calls.Add(1)
	if b.failing[descriptorPath] {
		return nil, errors.New("boom")
	}
	return b.queries[descriptorPath], nil
}

const includesDir = "public/cdf/includes"

func sampleDoc() *contextcfg.Document {
	return &contextcfg.Document{
		AutoIncludes: []contextcfg.AutoIncludeDecl{
			{CDA: "shared/*.cda", Includes: []string{"public/**"}, Excludes: []string{"public/private/**"}},
			{CDA: "/global.cda", Includes: []string{"**"}},
			{CDA: "home.cda", Includes: []string{"/home/*/dash.wcdf"}},
		},
	}
}

func sampleContent() *fakeContent {
	return &fakeContent{files: []string{
		includesDir + "/shared/sales.cda",
		includesDir + "/shared/hr.cda",
		includesDir + "/shared/nested/deep.cda",
		includesDir + "/global.cda",
		includesDir + "/readme.txt",
	}}
}

func TestRule_CanInclude(t *testing.T) {
	tests := []struct {
		name     string
		includes []string
		excludes []string
		path     string
		want     bool
	}{
		{"double star crosses dirs", []string{"public/**"}, nil, "public/a/b/dash.wcdf", true},
		{"leading slash ignored", []string{"public/**"}, nil, "/public/dash.wcdf", true},
		{"single star stays in segment", []string{"public/*"}, nil, "public/a/dash.wcdf", false},
		{"single star matches segment", []string{"public/*"}, nil, "public/dash.wcdf", true},
		{"double star slash matches zero dirs", []string{"**/dash.wcdf"}, nil, "dash.wcdf", true},
		{"question mark", []string{"home/?/x"}, nil, "home/a/x", true},
		{"exclude wins", []string{"public/**"}, []string{"public/private/**"}, "public/private/x.wcdf", false},
		{"no include no match", nil, nil, "public/dash.wcdf", false},
		{"regexp chars are literal", []string{"a+b/(c).wcdf"}, nil, "a+b/(c).wcdf", true},
		{"unicode literal", []string{"público/*"}, nil, "público/x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRule("d.cda", tt.includes, tt.excludes)
			assert.Equal(t, tt.want, r.CanInclude(tt.path))
		})
	}
}

func TestBuild_ExpandsGlobs(t *testing.T) {
	content := sampleContent()
	rules := Build(sampleDoc(), content, includesDir)

	var descriptors []string
	for _, r := range rules {
		descriptors = append(descriptors, r.DescriptorPath)
	}

	assert.Equal(t, []string{
		includesDir + "/shared/sales.cda",
		includesDir + "/shared/hr.cda",
		includesDir + "/global.cda",
		includesDir + "/home.cda",
	}, descriptors)
	assert.EqualValues(t, 1, content.lists.Load())
}

func TestBuild_NilDocument(t *testing.T) {
	assert.Nil(t, Build(nil, sampleContent(), includesDir))
}

func TestResolver_Resolve(t *testing.T) {
	broker := &fakeBroker{
		present: true,
		queries: map[string][]string{
			includesDir + "/shared/sales.cda": {"salesQuery"},
			includesDir + "/shared/hr.cda":    {"hrQuery", "headcount"},
			includesDir + "/global.cda":       {"global"},
		},
	}
	r := NewResolver(NewCache(), broker, sampleContent(), includesDir, nil)

	got := r.Resolve(context.Background(), "public/sales/dash.wcdf", sampleDoc())
	assert.Equal(t, map[string][]string{
		includesDir + "/shared/sales.cda": {"salesQuery"},
		includesDir + "/shared/hr.cda":    {"hrQuery", "headcount"},
		includesDir + "/global.cda":       {"global"},
	}, got)

	got = r.Resolve(context.Background(), "public/private/dash.wcdf", sampleDoc())
	assert.Equal(t, map[string][]string{
		includesDir + "/global.cda": {"global"},
	}, got)
}

func TestResolver_BrokerAbsent(t *testing.T) {
	content := sampleContent()
	broker := &fakeBroker{present: false}
	r := NewResolver(NewCache(), broker, content, includesDir, nil)

	got := r.Resolve(context.Background(), "public/dash.wcdf", sampleDoc())
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.EqualValues(t, 0, content.lists.Load())
	assert.False(t, r.Cache().Populated())
}

func TestResolver_NilBroker(t *testing.T) {
	r := NewResolver(nil, nil, sampleContent(), includesDir, nil)
	assert.Empty(t, r.Resolve(context.Background(), "public/dash.wcdf", sampleDoc()))
}

func TestResolver_IncludesDirMissing(t *testing.T) {
	content := &fakeContent{files: []string{"elsewhere/x.cda"}}
	r := NewResolver(NewCache(), &fakeBroker{present: true}, content, includesDir, nil)

	assert.Empty(t, r.Resolve(context.Background(), "public/dash.wcdf", sampleDoc()))
	assert.False(t, r.Cache().Populated())
}

func TestResolver_BrokerErrorSkipsDescriptor(t *testing.T) {
	broker := &fakeBroker{
		present: true,
		queries: map[string][]string{includesDir + "/global.cda": {"global"}},
		failing: map[string]bool{includesDir + "/shared/sales.cda": true},
	}
	r := NewResolver(NewCache(), broker, sampleContent(), includesDir, nil)

	got := r.Resolve(context.Background(), "public/dash.wcdf", sampleDoc())
	assert.NotContains(t, got, includesDir+"/shared/sales.cda")
	assert.Equal(t, []string{}, got[includesDir+"/shared/hr.cda"])
	assert.Equal(t, []string{"global"}, got[includesDir+"/global.cda"])
}

func TestResolver_CacheReuseAndClear(t *testing.T) {
	content := sampleContent()
	r := NewResolver(NewCache(), &fakeBroker{present: true}, content, includesDir, nil)
	ctx := context.Background()

	r.Resolve(ctx, "public/dash.wcdf", sampleDoc())
	r.Resolve(ctx, "public/dash.wcdf", sampleDoc())
	assert.EqualValues(t, 1, content.lists.Load(), "second resolution must reuse cached rules")

	// the cache is not keyed by configuration content
	r.Resolve(ctx, "public/dash.wcdf", contextcfg.Empty())
	assert.EqualValues(t, 1, content.lists.Load())

	r.ClearCache()
	r.Resolve(ctx, "public/dash.wcdf", sampleDoc())
	assert.EqualValues(t, 2, content.lists.Load(), "resolution after clear must rebuild")
}

func TestCache_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	c := NewCache()
	var builds atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rules := c.GetOrBuild(func() []Rule {
				builds.Add(1)
				return []Rule{NewRule("x.cda", []string{"**"}, nil)}
			})
			assert.Len(t, rules, 1)
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, builds.Load())
}

func TestCache_EmptyBuildStillCached(t *testing.T) {
	c := NewCache()
	var builds int
	build := func() []Rule {
		builds++
		return nil
	}

	require.NotNil(t, c.GetOrBuild(build))
	c.GetOrBuild(build)
	assert.Equal(t, 1, builds)
	assert.True(t, c.Populated())

	c.Invalidate()
	assert.False(t, c.Populated())
	c.GetOrBuild(build)
	assert.Equal(t, 2, builds)
}
