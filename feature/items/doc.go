// Package items reconciles the item tree of a spec with a tenant.
//
// The tree is walked twice. The first pass resolves each item by external
// reference or catalogue path, creates the ones that do not exist yet, updates
// the others in place (moving them under their declared parent) and sends
// every component that does not hold item relations, once per tenant language
// with the target language first. Each item is registered with the resolver
// as soon as it has an id, so children and later items can find it.
//
// The second pass runs once the first has covered the whole tree. It wires
// item relations, which may point at items created anywhere in the first pass,
// answering references from the resolver cache only, and then publishes.
//
// Per-run state (remote ids, compiled components, topic ids) lives in a side
// table indexed by tree handle. Spec items are never mutated.
package items
