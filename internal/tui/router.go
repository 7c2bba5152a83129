package tui

type route int

const (
	routeSignIn route = iota
	routeSummaries
	routeKeyword
)

func (r route) String() string {
	switch r {
	case routeSignIn:
		return "sign-in"
	case routeSummaries:
		return "summaries"
	case routeKeyword:
		return "keyword"
	}
	return "unknown"
}

// screenOptions mirrors per-screen header settings.
type screenOptions struct {
	title string
	// backDisabled swallows esc/back on this screen; the only ways out are
	// the screen's own actions.
	backDisabled bool
}

var screens = map[route]screenOptions{
	routeSignIn:    {title: "Sign in", backDisabled: true},
	routeSummaries: {title: "News summaries", backDisabled: true},
	routeKeyword:   {title: "Keywords"},
}

type router struct {
	stack []route
}

func newRouter(start route) *router {
	return &router{stack: []route{start}}
}

func (r *router) current() route {
	return r.stack[len(r.stack)-1]
}

func (r *router) options() screenOptions {
	return screens[r.current()]
}

func (r *router) push(to route) {
	r.stack = append(r.stack, to)
}

// reset makes to the only screen on the stack.
func (r *router) reset(to route) {
	r.stack = append(r.stack[:0], to)
}

// back pops the current screen unless it disables back navigation or is the
// root. It reports whether anything changed.
func (r *router) back() bool {
	if r.options().backDisabled || len(r.stack) == 1 {
		return false
	}
	r.stack = r.stack[:len(r.stack)-1]
	return true
}
