// Package tenant synchronises tenant level settings (languages, price
// variants, stock locations, vat types, topic maps and grids) and exposes
// the resulting Catalog to item reconciliation.
//
// Every area follows the same rule: fetch what exists, create what is
// missing, never delete.
package tenant
