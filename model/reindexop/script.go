package reindexop

// booleanCoercionScript is sent verbatim as the reindex request's inline
// script whenever the source mapping has at least one boolean field. It is
// data, not code: the only variable part is the "paths" param, a flat list
// of dot-separated field paths computed from the source mapping.
//
// The cluster evaluates it once per copied document. For each path it
// looks up the (possibly nested) field value and, if the value is one of
// the loosely-typed forms the old cluster tolerated ("yes"/"1"/1/"on" or
// "no"/"0"/0/"off"), coerces it to the equivalent boolean literal. Any
// value that is already a boolean, or doesn't match a known truthy/falsy
// form, is left untouched.
const booleanCoercionScript = `
def truthy = ['yes', '1', 'on'];
def falsy = ['no', '0', 'off'];
for (path in params.paths) {
  def segments = path.splitOnToken('.');
  def node = ctx._source;
  def parent = null;
  def last = null;
  for (segment in segments) {
    if (node == null) { break; }
    parent = node;
    last = segment;
    node = node[segment];
  }
  if (node == null || parent == null) { continue; }
  if (node instanceof boolean) { continue; }
  def asStr = String.valueOf(node).toLowerCase();
  if (truthy.contains(asStr)) {
    parent[last] = true;
  } else if (falsy.contains(asStr)) {
    parent[last] = false;
  }
}
`

// BooleanCoercionScriptLang is the scripting language the cluster should
// interpret booleanCoercionScript with.
const BooleanCoercionScriptLang = "painless"

// BooleanCoercionScript returns the inline script source and its params for
// the given list of boolean field paths found in the source mapping.
// Returns an empty source when paths is empty, signalling the caller
// shouldn't attach a script at all.
func BooleanCoercionScript(paths []string) (lang, source string, params map[string]interface{}) {
	if len(paths) == 0 {
		return "", "", nil
	}
	return BooleanCoercionScriptLang, booleanCoercionScript, map[string]interface{}{
		"paths": paths,
	}
}
