// Package reconcile plans and applies the convergence of a desired set of
// entities (from a tenant spec) against what already exists remotely.
//
// # Architecture
//
// 1. Adapter: kind-specific key extraction and field comparison.
//
// 2. BuildPlan: builds the union of keys from both sides, detects presence and
//    mismatches, and turns them into create/update actions. Desired order is kept
//    so that parents are created before the entities that reference them.
//
// 3. ApplyPlan: executes the actions through a Mutator. Failures are collected per
//    action and never stop the remaining actions.
//
// Entities that only exist remotely are reported but never deleted.
//
// # Usage Example
//
//	plan := reconcile.BuildPlan[spec.VatType, tenant.VatType](adapter, desired, existing)
//	executed, err := reconcile.ApplyPlan(ctx, plan, mutator, nil)
package reconcile
