// Package domain contains the core entities of the recurring-task engine:
// task templates that carry a recurrence rule, and the concrete task
// instances materialized from them. It is independent of storage and
// delivery concerns.
package domain
