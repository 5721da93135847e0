package recurrence

// Example is a ready-made rule offered to clients building schedules.
type Example struct {
	Name        string `json:"name"`
	Rule        string `json:"rule"`
	Description string `json:"description"`
}

var examples = []Example{
	{Name: "daily", Rule: "FREQ=DAILY", Description: "Every day"},
	{Name: "weekdays", Rule: "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", Description: "Every weekday"},
	{Name: "weekly", Rule: "FREQ=WEEKLY", Description: "Every week on the start day"},
	{Name: "biweekly", Rule: "FREQ=WEEKLY;INTERVAL=2", Description: "Every two weeks"},
	{Name: "weekend", Rule: "FREQ=WEEKLY;BYDAY=SA,SU", Description: "Every Saturday and Sunday"},
	{Name: "monthly", Rule: "FREQ=MONTHLY", Description: "Every month on the start day"},
	{Name: "first_of_month", Rule: "FREQ=MONTHLY;BYMONTHDAY=1", Description: "On the first day of every month"},
	{Name: "last_of_month", Rule: "FREQ=MONTHLY;BYMONTHDAY=-1", Description: "On the last day of every month"},
	{Name: "first_monday", Rule: "FREQ=MONTHLY;BYDAY=1MO", Description: "On the first Monday of every month"},
	{Name: "last_friday", Rule: "FREQ=MONTHLY;BYDAY=-1FR", Description: "On the last Friday of every month"},
	{Name: "quarterly", Rule: "FREQ=MONTHLY;INTERVAL=3", Description: "Every three months"},
	{Name: "yearly", Rule: "FREQ=YEARLY", Description: "Every year on the start date"},
	{Name: "ten_days", Rule: "FREQ=DAILY;COUNT=10", Description: "Every day, ten times"},
}

// Examples returns the catalogue of example rules. Every entry parses.
func Examples() []Example {
	return append([]Example(nil), examples...)
}
