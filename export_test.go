package sqlexpr

var Reduce = reduce

// Legal reports the error checkLegal finds in e for a declaration kind.
func Legal(kind DeclarationKind, e Expression) error {
	return checkLegal(kind, e)
}

func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
