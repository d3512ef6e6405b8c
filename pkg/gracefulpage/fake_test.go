package gracefulpage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type fakeResponse struct {
	status     int
	statusText string
	headers    map[string]string
	headerErr  error
}

func (r *fakeResponse) Status() int        { return r.status }
func (r *fakeResponse) StatusText() string { return r.statusText }

func (r *fakeResponse) HeaderValue(name string) (string, error) {
	if r.headerErr != nil {
		return "", r.headerErr
	}
	for k, v := range r.headers {
		if strings.EqualFold(k, name) {
			return v, nil
		}
	}
	return "", nil
}

func ok() *fakeResponse { return &fakeResponse{status: 200, statusText: "OK"} }

// navigateFunc scripts Goto. call counts Goto calls across every tab of the provider.
type navigateFunc func(tab *fakeTab, call int, url string) (Response, error)

type fakeTab struct {
	provider *fakeProvider
	index    int

	mu         sync.Mutex
	closed     bool
	closeOpts  CloseOptions
	closeErr   error
	lastGoto   GotoOptions
	calls      []string
	evalResult any
}

func (t *fakeTab) record(call string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
}

func (t *fakeTab) Goto(ctx context.Context, url string, opts GotoOptions) (Response, error) {
	t.mu.Lock()
	t.lastGoto = opts
	t.mu.Unlock()
	return t.provider.navigate(t, url)
}

func (t *fakeTab) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	t.record("evaluate:" + expression)
	return t.evalResult, nil
}

func (t *fakeTab) WaitForSelector(ctx context.Context, selector string, opts SelectorOptions) error {
	t.record("wait:" + selector + ":" + opts.State)
	return nil
}

func (t *fakeTab) Fill(ctx context.Context, selector, value string, opts ActionOptions) error {
	t.record("fill:" + selector + "=" + value)
	return nil
}

func (t *fakeTab) Click(ctx context.Context, selector string, opts ActionOptions) error {
	t.record("click:" + selector)
	return nil
}

func (t *fakeTab) Content(ctx context.Context) (string, error) {
	t.record("content")
	return "<html><body>home page</body></html>", nil
}

func (t *fakeTab) Title(ctx context.Context) (string, error) {
	t.record("title")
	return "Home", nil
}

func (t *fakeTab) InnerHTML(ctx context.Context, selector string, opts ActionOptions) (string, error) {
	t.record("innerHTML:" + selector)
	return "<b>home</b>", nil
}

func (t *fakeTab) InnerText(ctx context.Context, selector string, opts ActionOptions) (string, error) {
	t.record("innerText:" + selector)
	return "home page", nil
}

func (t *fakeTab) Close(ctx context.Context, opts CloseOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeOpts = opts
	return t.closeErr
}

func (t *fakeTab) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type fakeProvider struct {
	mu          sync.Mutex
	tabs        []*fakeTab
	gotoCalls   int
	script      navigateFunc
	newPageErrs []error // consumed in order by NewPage; nil entries succeed
	closeErr    error

	// started receives once per NewPage call when non-nil; NewPage then
	// blocks until gate is closed.
	started chan struct{}
	gate    chan struct{}
}

func newFakeProvider(script navigateFunc) *fakeProvider {
	if script == nil {
		script = func(*fakeTab, int, string) (Response, error) { return ok(), nil }
	}
	return &fakeProvider{script: script}
}

func (p *fakeProvider) NewPage(ctx context.Context) (Tab, error) {
	if p.started != nil {
		p.started <- struct{}{}
		<-p.gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.newPageErrs) > 0 {
		err := p.newPageErrs[0]
		p.newPageErrs = p.newPageErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	tab := &fakeTab{provider: p, index: len(p.tabs), closeErr: p.closeErr}
	p.tabs = append(p.tabs, tab)
	return tab, nil
}

func (p *fakeProvider) navigate(tab *fakeTab, url string) (Response, error) {
	p.mu.Lock()
	call := p.gotoCalls
	p.gotoCalls++
	p.mu.Unlock()
	return p.script(tab, call, url)
}

func (p *fakeProvider) tabCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tabs)
}

func (p *fakeProvider) tab(i int) *fakeTab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tabs[i]
}

func (p *fakeProvider) gotoCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gotoCalls
}

// errorSpy records OnError calls.
type errorSpy struct {
	mu     sync.Mutex
	errors []error
}

func (s *errorSpy) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *errorSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *errorSpy) last() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errors) == 0 {
		return nil
	}
	return s.errors[len(s.errors)-1]
}

// failFirst returns errs for the first len(errs) Goto calls, then 200 OK.
func failFirst(errs ...error) navigateFunc {
	return func(_ *fakeTab, call int, _ string) (Response, error) {
		if call < len(errs) {
			return nil, errs[call]
		}
		return ok(), nil
	}
}

var errNameNotResolved = errors.New("net::ERR_NAME_NOT_RESOLVED at http://no-such-host.invalid/")
