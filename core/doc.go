// Package core contains the payments domain: bookings, packages, connected
// accounts, the fee split, payee onboarding checks and checkout session
// creation. Processor and storage adapters depend on this package; core does
// not depend on any processor SDK or storage engine.
package core
