package alerts

type Router struct {
	defaultRoute string
	byRoute      map[string]Notifier
}

func (r *Router) Update(
	key string,
	notifier Notifier,
) {
	r.byRoute[key] = notifier
}

func (r *Router) Resolve(
	key string,
) Notifier {

	if key != "" {
		if n, ok := r.byRoute[key]; ok {
			return n
		}
	}

	if n, ok := r.byRoute[r.defaultRoute]; ok {
		return n
	}

	return nil
}

func NewRouter(
	defaultRoute string,
	routes map[string]Notifier,
) *Router {

	if routes == nil {
		routes = map[string]Notifier{}
	}

	return &Router{
		defaultRoute: defaultRoute,
		byRoute:      routes,
	}
}
