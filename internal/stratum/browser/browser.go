// Package browser implements the browser stratum (C3): a single persistent
// browser context, navigation, element snapshot and ref-based actions.
// Grounded on internal/browser/session.go (ref cache, singleton Playwright
// instance, page bookkeeping), snapshot.go (interactive-role enumeration,
// annotateSnapshot-style labeling) and actions.go (per-action timeouts,
// resolveSelector, ActionResult shape) from the teacher repo, retargeted
// from the teacher's CDP-relay/multi-profile model to this spec's single
// fixed-profile persistent context (§4.C3).
package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/deskstratum/agent/internal/defaults"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/params"
	"github.com/deskstratum/agent/internal/stratum"
)

const (
	navigateTimeout = 30 * time.Second
	actionTimeout   = 8 * time.Second
)

// trackedPage wraps a Playwright page with the stable identity used to
// detect staleness across snapshots (§3: ref table entries carry "the
// owning page identity captured at snapshot time").
type trackedPage struct {
	id   string
	page playwright.Page
}

// Stratum owns the single process-wide browser context (§5 "Shared
// resources": "Browser context: process-wide singleton, created lazily,
// cleared by close handler").
type Stratum struct {
	mu sync.Mutex

	pw      *playwright.Playwright
	browser playwright.BrowserContext
	pages   []*trackedPage
	active  *trackedPage

	refs *RefTable
}

func New() *Stratum {
	return &Stratum{refs: NewRefTable()}
}

var _ stratum.Stratum = (*Stratum)(nil)

func (s *Stratum) Handle(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
	switch action {
	case "launch":
		return s.launch(ctx)
	case "close":
		return s.close(ctx)
	case "navigate":
		return s.navigate(ctx, p)
	case "snapshot":
		return s.snapshot(ctx, p)
	case "click":
		return s.click(ctx, p)
	case "type":
		return s.typeText(ctx, p)
	case "select":
		return s.selectOption(ctx, p)
	case "screenshot":
		return s.screenshot(ctx)
	case "page_info":
		return s.pageInfo(ctx)
	case "new_tab":
		return s.newTab(ctx, p)
	case "close_tab":
		return s.closeTab(ctx)
	case "list_tabs":
		return s.listTabs(ctx)
	default:
		return nil, envelope.New(envelope.KindUnknownAction, "Unknown browser action %q", action)
	}
}

// launch starts a visible browser bound to the fixed profile directory. A
// second call while already running is a no-op success (§4.C3).
func (s *Stratum) launch(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return map[string]any{"launched": true, "alreadyRunning": true}, nil
	}

	if s.pw == nil {
		if err := playwright.Install(); err != nil {
			return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to install browser engine")
		}
		pw, err := playwright.Run()
		if err != nil {
			return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to start browser engine")
		}
		s.pw = pw
	}

	profileDir, err := defaults.BrowserProfileDir()
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to resolve browser profile dir")
	}

	// Automation-hiding flags: a visible, ordinary-looking browser window
	// rather than a flagged "controlled by automated test software" one.
	browserCtx, err := s.pw.Chromium.LaunchPersistentContext(profileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(false),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-first-run",
			"--no-default-browser-check",
		},
	})
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to launch browser")
	}

	s.browser = browserCtx
	s.pages = nil
	s.active = nil

	browserCtx.OnClose(func(playwright.BrowserContext) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.browser = nil
		s.pages = nil
		s.active = nil
	})

	if _, err := s.ensurePage(); err != nil {
		return nil, err
	}

	return map[string]any{"launched": true}, nil
}

// close tears down the context. Idempotent.
func (s *Stratum) close(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	browserCtx := s.browser
	s.browser = nil
	s.pages = nil
	s.active = nil
	s.mu.Unlock()

	if browserCtx == nil {
		return map[string]any{"closed": true}, nil
	}
	if err := browserCtx.Close(); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to close browser")
	}
	return map[string]any{"closed": true}, nil
}

// ensurePage returns the active tracked page, launching one if none exists.
// Caller must hold s.mu.
func (s *Stratum) ensurePage() (*trackedPage, error) {
	if s.browser == nil {
		return nil, envelope.New(envelope.KindValidationError, "browser is not launched; call launch first")
	}
	if s.active != nil {
		return s.active, nil
	}
	if pages := s.browser.Pages(); len(pages) > 0 {
		tp := &trackedPage{id: "page-" + uuid.New().String()[:8], page: pages[0]}
		s.pages = append(s.pages, tp)
		s.active = tp
		return tp, nil
	}
	pg, err := s.browser.NewPage()
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to open page")
	}
	tp := &trackedPage{id: "page-" + uuid.New().String()[:8], page: pg}
	s.pages = append(s.pages, tp)
	s.active = tp
	return tp, nil
}

func (s *Stratum) navigate(ctx context.Context, p map[string]any) (map[string]any, error) {
	url, err := params.String(p, "url")
	if err != nil {
		return nil, params.MissingParamError("url", "browser navigate")
	}

	s.mu.Lock()
	tp, err := s.ensurePage()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, err := tp.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navigateTimeout.Milliseconds())),
	}); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "navigation failed")
	}

	s.refs.Clear()
	title, _ := tp.page.Title()
	return map[string]any{"url": tp.page.URL(), "title": title}, nil
}

// snapshotElement mirrors one element as returned by the enumeration script.
type snapshotElement struct {
	Role     string `json:"role"`
	Label    string `json:"label"`
	Tag      string `json:"tag"`
	Selector string `json:"selector"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
}

func (s *Stratum) snapshot(ctx context.Context, p map[string]any) (map[string]any, error) {
	interactive := params.OptBool(p, "interactive", false)

	s.mu.Lock()
	tp, err := s.ensurePage()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	raw, err := tp.page.Evaluate(enumerationScript)
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "snapshot enumeration failed")
	}
	encoded, ok := raw.(string)
	if !ok {
		return nil, envelope.New(envelope.KindScriptFailed, "snapshot enumeration returned unexpected type %T", raw)
	}
	var elements []snapshotElement
	if err := json.Unmarshal([]byte(encoded), &elements); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "snapshot enumeration returned invalid JSON")
	}

	s.refs.Clear()
	out := make([]map[string]any, 0, len(elements))
	for _, el := range elements {
		if interactive && !(el.Visible && el.Enabled) {
			continue
		}
		if !interactive && !el.Visible {
			continue
		}
		ref := s.refs.Assign(Locator{Selector: el.Selector, PageID: tp.id})
		out = append(out, map[string]any{
			"ref":   ref,
			"role":  el.Role,
			"label": el.Label,
			"tag":   el.Tag,
		})
	}

	title, _ := tp.page.Title()
	return map[string]any{
		"pageUrl":   tp.page.URL(),
		"pageTitle": title,
		"elements":  out,
	}, nil
}

// resolve validates ref against the currently active page and returns its
// selector, or a StaleSnapshot/UnknownRef error per §3/§7.
func (s *Stratum) resolve(ref string) (string, *trackedPage, error) {
	loc, ok := s.refs.Get(ref)
	if !ok {
		return "", nil, envelope.UnknownRef(ref)
	}
	s.mu.Lock()
	tp := s.active
	s.mu.Unlock()
	if tp == nil || tp.id != loc.PageID {
		return "", nil, envelope.New(envelope.KindStaleSnapshot,
			"The active page has changed since ref %q was issued. Take a new snapshot.", ref)
	}
	return loc.Selector, tp, nil
}

func (s *Stratum) click(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "browser click")
	}
	selector, tp, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	locator := tp.page.Locator(selector)
	if count, cerr := locator.Count(); cerr == nil && count == 0 {
		return nil, envelope.New(envelope.KindUnknownRef, "Unknown reference %q: selector %q matches zero elements. Take a new snapshot.", ref, selector)
	}
	if err := locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(actionTimeout.Milliseconds())),
	}); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "click failed")
	}
	return map[string]any{"action": "click", "ref": ref}, nil
}

func (s *Stratum) typeText(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "browser type")
	}
	text, err := params.String(p, "text")
	if err != nil {
		return nil, params.MissingParamError("text", "browser type")
	}
	selector, tp, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	locator := tp.page.Locator(selector)
	if count, cerr := locator.Count(); cerr == nil && count == 0 {
		return nil, envelope.New(envelope.KindUnknownRef, "Unknown reference %q: selector %q matches zero elements. Take a new snapshot.", ref, selector)
	}
	if err := locator.Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(float64(actionTimeout.Milliseconds())),
	}); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "type failed")
	}
	return map[string]any{"action": "type", "ref": ref}, nil
}

func (s *Stratum) selectOption(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "browser select")
	}
	value, err := params.String(p, "value")
	if err != nil {
		return nil, params.MissingParamError("value", "browser select")
	}
	selector, tp, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	locator := tp.page.Locator(selector)
	if count, cerr := locator.Count(); cerr == nil && count == 0 {
		return nil, envelope.New(envelope.KindUnknownRef, "Unknown reference %q: selector %q matches zero elements. Take a new snapshot.", ref, selector)
	}
	opts := playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(float64(actionTimeout.Milliseconds()))}
	// Try by visible label first, then by value attribute (§4.C3).
	if _, err := locator.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}}, opts); err == nil {
		return map[string]any{"action": "select", "ref": ref, "value": value}, nil
	}
	if _, err := locator.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}}, opts); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "select failed")
	}
	return map[string]any{"action": "select", "ref": ref, "value": value}, nil
}

func (s *Stratum) screenshot(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	tp, err := s.ensurePage()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, err := tp.page.Screenshot()
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "screenshot failed")
	}
	return map[string]any{"image": base64.StdEncoding.EncodeToString(data)}, nil
}

func (s *Stratum) pageInfo(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	tp, err := s.ensurePage()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	title, _ := tp.page.Title()
	return map[string]any{"url": tp.page.URL(), "title": title}, nil
}

func (s *Stratum) newTab(ctx context.Context, p map[string]any) (map[string]any, error) {
	url := params.OptString(p, "url", "")

	s.mu.Lock()
	if s.browser == nil {
		s.mu.Unlock()
		return nil, envelope.New(envelope.KindValidationError, "browser is not launched; call launch first")
	}
	pg, err := s.browser.NewPage()
	if err != nil {
		s.mu.Unlock()
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to open tab")
	}
	tp := &trackedPage{id: "page-" + uuid.New().String()[:8], page: pg}
	s.pages = append(s.pages, tp)
	s.active = tp
	s.mu.Unlock()

	s.refs.Clear()
	if url != "" {
		if _, err := pg.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(navigateTimeout.Milliseconds())),
		}); err != nil {
			return nil, envelope.Wrap(envelope.KindScriptFailed, err, "navigation failed")
		}
	}
	title, _ := pg.Title()
	return map[string]any{"tabId": tp.id, "url": pg.URL(), "title": title}, nil
}

func (s *Stratum) closeTab(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	tp := s.active
	if tp == nil {
		s.mu.Unlock()
		return map[string]any{"closed": false}, nil
	}
	idx := -1
	for i, t := range s.pages {
		if t == tp {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.pages = append(s.pages[:idx], s.pages[idx+1:]...)
	}
	if len(s.pages) > 0 {
		s.active = s.pages[len(s.pages)-1]
	} else {
		s.active = nil
	}
	s.mu.Unlock()

	s.refs.Clear()
	if err := tp.page.Close(); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to close tab")
	}
	return map[string]any{"closed": true}, nil
}

func (s *Stratum) listTabs(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.pages))
	for _, tp := range s.pages {
		title, _ := tp.page.Title()
		out = append(out, map[string]any{
			"tabId":  tp.id,
			"url":    tp.page.URL(),
			"title":  title,
			"active": tp == s.active,
		})
	}
	return map[string]any{"tabs": out}, nil
}

// enumerationScript walks the document for the fixed selector set (§4.C3):
// links, buttons, inputs other than hidden, selects, textareas, widgets
// identified by accessible role attributes, and editable regions. It
// computes a stable CSS selector per element, preferring data-testid -> id
// -> parent-id-scoped nth-of-type -> attribute-based, and applies the
// visibility rule (non-empty rect, display != none, visibility != hidden,
// opacity != 0) and the label priority (aria-label, label element,
// placeholder, title, innerText truncated at 80 chars).
const enumerationScript = `() => {
  const SELECTOR = [
    'a[href]', 'button', 'input:not([type="hidden"])', 'select', 'textarea',
    '[role="button"]', '[role="link"]', '[role="checkbox"]', '[role="radio"]',
    '[role="tab"]', '[role="menuitem"]', '[role="combobox"]', '[role="switch"]',
    '[role="slider"]', '[contenteditable="true"]'
  ].join(',');

  function isVisible(el) {
    const rect = el.getBoundingClientRect();
    if (rect.width <= 0 || rect.height <= 0) return false;
    const style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden') return false;
    if (parseFloat(style.opacity) === 0) return false;
    return true;
  }

  function truncate(s, n) {
    if (!s) return '';
    s = s.trim();
    return s.length > n ? s.slice(0, n) : s;
  }

  function labelFor(el) {
    const aria = el.getAttribute('aria-label');
    if (aria) return truncate(aria, 80);
    if (el.id) {
      const lab = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
      if (lab && lab.innerText) return truncate(lab.innerText, 80);
    }
    const placeholder = el.getAttribute('placeholder');
    if (placeholder) return truncate(placeholder, 80);
    const title = el.getAttribute('title');
    if (title) return truncate(title, 80);
    return truncate(el.innerText || '', 80);
  }

  function nthOfTypeSelector(el) {
    const parent = el.parentElement;
    let scope = '';
    if (parent && parent.id) {
      scope = '#' + CSS.escape(parent.id) + ' > ';
    }
    const tag = el.tagName.toLowerCase();
    let index = 1;
    let sibling = el.previousElementSibling;
    while (sibling) {
      if (sibling.tagName === el.tagName) index++;
      sibling = sibling.previousElementSibling;
    }
    return scope + tag + ':nth-of-type(' + index + ')';
  }

  function attributeSelector(el) {
    const tag = el.tagName.toLowerCase();
    const type = el.getAttribute('type');
    const name = el.getAttribute('name');
    if (type) return tag + '[type="' + type + '"]' + (name ? '[name="' + name + '"]' : '');
    if (name) return tag + '[name="' + name + '"]';
    return nthOfTypeSelector(el);
  }

  function selectorFor(el) {
    const testId = el.getAttribute('data-testid');
    if (testId) return '[data-testid="' + testId + '"]';
    if (el.id) return '#' + CSS.escape(el.id);
    const parent = el.parentElement;
    if (parent && parent.id) return nthOfTypeSelector(el);
    return attributeSelector(el);
  }

  function roleFor(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const tag = el.tagName.toLowerCase();
    if (tag === 'a') return 'link';
    if (tag === 'button') return 'button';
    if (tag === 'select') return 'combobox';
    if (tag === 'textarea') return 'textbox';
    if (tag === 'input') {
      const t = (el.getAttribute('type') || 'text').toLowerCase();
      if (t === 'checkbox') return 'checkbox';
      if (t === 'radio') return 'radio';
      return 'textbox';
    }
    return tag;
  }

  const seen = new Set();
  const out = [];
  document.querySelectorAll(SELECTOR).forEach((el) => {
    const selector = selectorFor(el);
    if (seen.has(selector)) return;
    seen.add(selector);
    out.push({
      role: roleFor(el),
      label: labelFor(el),
      tag: el.tagName.toLowerCase(),
      selector: selector,
      visible: isVisible(el),
      enabled: !el.disabled,
    });
  });
  return JSON.stringify(out);
}`
