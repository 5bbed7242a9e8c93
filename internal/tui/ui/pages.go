package ui

import "github.com/rivo/tview"

// Pages stacks Components on top of tview.Pages. The bottom page cannot be
// popped.
type Pages struct {
	*tview.Pages
	stack    []Component
	onChange func(top Component)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to run whenever the top page changes.
func (p *Pages) SetOnChange(fn func(top Component)) {
	p.onChange = fn
}

// Push shows c on top. Pushing the page already on top is a no-op, and a
// page deeper in the stack is brought back by popping down to it.
func (p *Pages) Push(c Component) {
	for i, existing := range p.stack {
		if existing.Name() == c.Name() {
			p.truncate(i + 1)
			return
		}
	}
	if !p.HasPage(c.Name()) {
		p.AddPage(c.Name(), c, true, false)
	}
	p.stack = append(p.stack, c)
	p.SwitchToPage(c.Name())
	p.notify()
}

// Pop removes the top page unless it is the last one. It reports whether a
// page was removed.
func (p *Pages) Pop() bool {
	if len(p.stack) <= 1 {
		return false
	}
	p.truncate(len(p.stack) - 1)
	return true
}

// Top returns the visible page, or nil when the stack is empty.
func (p *Pages) Top() Component {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns the number of stacked pages.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) truncate(n int) {
	p.stack = p.stack[:n]
	p.SwitchToPage(p.stack[n-1].Name())
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Top())
	}
}
