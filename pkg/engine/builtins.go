package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites scene script source into something zygomys
// accepts:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbol registration.
//  2. Kebab-case identifiers become underscore form (auto-recheck ->
//     auto_recheck), since zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// ; comments, including ;; style.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name, not a minus.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Sexp wrappers for scene values
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %s %s %s)", formatNum(v.vec.X), formatNum(v.vec.Y), formatNum(v.vec.Z))
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef is what every node-creating builtin returns, so the node can
// be handed to group.
type sexpNodeRef struct {
	id   scene.NodeID
	kind scene.NodeKind
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// checkKeywords rejects keywords a builtin does not understand, so a typo
// such as :inflat is reported instead of silently ignored.
func checkKeywords(fn string, pa kwArgs, allowed ...string) error {
	for k := range pa.kw {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected scene element, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder populates one scene during one evaluation. Anonymous nodes are
// numbered per evaluation so the same source always yields the same IDs.
type builder struct {
	g    *scene.Graph
	anon int
}

// optionalName takes a leading string positional argument as the element
// name. Unnamed elements get a generated ID path.
func (b *builder) optionalName(fn string, pa *kwArgs) (string, error) {
	if len(pa.positional) == 0 {
		return "", nil
	}
	str, ok := pa.positional[0].(*zygo.SexpStr)
	if !ok {
		return "", nil
	}
	pa.positional = pa.positional[1:]
	if str.S == "" {
		return "", fmt.Errorf("%s: name must not be empty", fn)
	}
	return str.S, nil
}

// add registers a new top-level node. Named nodes are addressed by name, so
// reusing a name is an error rather than a silent overwrite.
func (b *builder) add(kind scene.NodeKind, name string, data scene.NodeData) (*sexpNodeRef, error) {
	path := name
	if name == "" {
		b.anon++
		path = fmt.Sprintf("%s/_anon_%d", kind, b.anon)
	} else if b.g.Lookup(name) != nil {
		return nil, fmt.Errorf("%s: duplicate name %q", kind, name)
	}
	id := scene.NewNodeID(path)
	b.g.AddNode(&scene.Node{ID: id, Kind: kind, Name: name, Data: data})
	b.g.AddRoot(id)
	return &sexpNodeRef{id: id, kind: kind, name: name}, nil
}

// registerBuiltins installs the scene DSL into a zygomys environment. Every
// element builtin adds a root node to g; group then adopts its arguments.
//
// Source must go through preprocessSource first so :keyword tokens are
// recognizable.
func registerBuiltins(env *zygo.Zlisp, g *scene.Graph) {
	b := &builder{g: g}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v geom.Vec3
		for i, a := range geom.Axes {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", strings.ToLower(a.Short()), err)
			}
			v = v.With(a, f)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (cube "shelf" :from (vec3 0 0 0) :to (vec3 16 1 8) :inflate 0.05)
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("cube", pa, "from", "to", "inflate"); err != nil {
			return zygo.SexpNull, err
		}
		cubeName, err := b.optionalName("cube", &pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("cube: unexpected argument %s", pa.positional[0].SexpString(nil))
		}

		box := &geom.Box{Name: cubeName}
		for _, f := range []struct {
			kw  string
			dst *geom.Vec3
		}{{"from", &box.From}, {"to", &box.To}} {
			v, ok := pa.kw[f.kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cube: :%s is required", f.kw)
			}
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cube: %s: %w", f.kw, err)
			}
			*f.dst = vec
		}
		if v, ok := pa.kw["inflate"]; ok {
			inf, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cube: inflate: %w", err)
			}
			box.Inflate = inf
		}

		ref, err := b.add(scene.NodeCube, cubeName, scene.CubeData{Box: box})
		if err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (locator "pivot" :at (vec3 8 0 8))
	// -----------------------------------------------------------------------
	env.AddFunction("locator", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("locator", pa, "at"); err != nil {
			return zygo.SexpNull, err
		}
		locName, err := b.optionalName("locator", &pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		var ld scene.LocatorData
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("locator: at: %w", err)
			}
			ld.Position = vec
		}

		ref, err := b.add(scene.NodeLocator, locName, ld)
		if err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (mesh "decal" :vertices 4)
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("mesh", pa, "vertices"); err != nil {
			return zygo.SexpNull, err
		}
		meshName, err := b.optionalName("mesh", &pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		var md scene.MeshData
		if v, ok := pa.kw["vertices"]; ok {
			n, ok := v.(*zygo.SexpInt)
			if !ok || n.Val < 0 {
				return zygo.SexpNull, fmt.Errorf("mesh: vertices: expected a non-negative integer, got %s", v.SexpString(nil))
			}
			md.VertexCount = int(n.Val)
		}

		ref, err := b.add(scene.NodeMesh, meshName, md)
		if err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (group "table" (cube ...) (group "legs" ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("group", pa); err != nil {
			return zygo.SexpNull, err
		}
		groupName, err := b.optionalName("group", &pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		var children []scene.NodeID
		for i, a := range pa.positional {
			ref, err := toNodeRef(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: child %d: %w", i+1, err)
			}
			children = append(children, ref.id)
		}

		ref, err := b.add(scene.NodeGroup, groupName, scene.GroupData{})
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := g.Adopt(ref.id, children...); err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (ref "shelf")
	// -----------------------------------------------------------------------
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires exactly 1 argument, got %d", len(args))
		}
		elemName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: name: %w", err)
		}
		n := g.Lookup(elemName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("ref: no element named %q", elemName)
		}
		return &sexpNodeRef{id: n.ID, kind: n.Kind, name: elemName}, nil
	})
}
