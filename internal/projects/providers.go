package projects

// Allowlists de proveedores OAuth por variante. Las keys son el id del
// proveedor en minúsculas tal como llega en el request.
var (
	sharedProviders = map[string]struct{}{
		"google":    {},
		"github":    {},
		"microsoft": {},
		"spotify":   {},
	}
	standardProviders = map[string]struct{}{
		"google":    {},
		"github":    {},
		"microsoft": {},
		"spotify":   {},
		"facebook":  {},
		"discord":   {},
		"gitlab":    {},
		"bitbucket": {},
		"linkedin":  {},
		"apple":     {},
		"x":         {},
		"twitch":    {},
	}
)

// IsSharedProvider reporta si id admite la variante shared.
func IsSharedProvider(id string) bool {
	_, ok := sharedProviders[id]
	return ok
}

// IsStandardProvider reporta si id admite la variante standard.
func IsStandardProvider(id string) bool {
	_, ok := standardProviders[id]
	return ok
}
