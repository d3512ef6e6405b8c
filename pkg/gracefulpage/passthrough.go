package gracefulpage

import "context"

// The methods below forward to the live tab, opening one if needed. They do
// not retry; wrap them in AutoRetryWhenFailed for that.

// Evaluate runs expression in the tab. If expression is a function, arg is
// passed to it.
func (p *Page) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return nil, err
	}
	return tab.Evaluate(ctx, expression, arg)
}

// WaitForSelector waits for selector to reach the requested state.
func (p *Page) WaitForSelector(ctx context.Context, selector string, opts ...SelectorOptions) error {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return err
	}
	var o SelectorOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return tab.WaitForSelector(ctx, selector, o)
}

// Fill fills the input matching selector with value.
func (p *Page) Fill(ctx context.Context, selector, value string, opts ...ActionOptions) error {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return err
	}
	return tab.Fill(ctx, selector, value, actionOptions(opts))
}

// Click clicks the element matching selector.
func (p *Page) Click(ctx context.Context, selector string, opts ...ActionOptions) error {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return err
	}
	return tab.Click(ctx, selector, actionOptions(opts))
}

// Content returns the full HTML of the tab.
func (p *Page) Content(ctx context.Context) (string, error) {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return "", err
	}
	return tab.Content(ctx)
}

// Title returns the document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return "", err
	}
	return tab.Title(ctx)
}

// InnerHTML returns the inner HTML of the element matching selector.
func (p *Page) InnerHTML(ctx context.Context, selector string, opts ...ActionOptions) (string, error) {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return "", err
	}
	return tab.InnerHTML(ctx, selector, actionOptions(opts))
}

// InnerText returns the rendered text of the element matching selector.
func (p *Page) InnerText(ctx context.Context, selector string, opts ...ActionOptions) (string, error) {
	tab, err := p.GetPage(ctx)
	if err != nil {
		return "", err
	}
	return tab.InnerText(ctx, selector, actionOptions(opts))
}

func actionOptions(opts []ActionOptions) ActionOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return ActionOptions{}
}
