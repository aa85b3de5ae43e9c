package testing

// DatabaseHelper asserts on raw tables, for checks that do not fit a
// repository proxy.
type DatabaseHelper struct {
	tc *TestCase
}

func NewDatabaseHelper(tc *TestCase) *DatabaseHelper {
	return &DatabaseHelper{tc: tc}
}

func (d *DatabaseHelper) count(table string, conditions map[string]any) int64 {
	var count int64

	query := d.tc.GetDB().Table(table)
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}

	err := query.Count(&count).Error
	d.tc.NoError(err, "Failed to count records in table %s", table)
	return count
}

func (d *DatabaseHelper) AssertDatabaseHas(table string, conditions map[string]any) {
	count := d.count(table, conditions)
	d.tc.True(count > 0, "Expected to find record in table %s with conditions %v", table, conditions)
}

func (d *DatabaseHelper) AssertDatabaseMissing(table string, conditions map[string]any) {
	count := d.count(table, conditions)
	d.tc.True(count == 0, "Expected NOT to find record in table %s with conditions %v", table, conditions)
}

func (d *DatabaseHelper) AssertDatabaseCount(table string, expectedCount int) {
	count := d.count(table, nil)
	d.tc.Equal(int64(expectedCount), count, "Expected %d records in table %s, got %d", expectedCount, table, count)
}

func (d *DatabaseHelper) Find(dest any, conditions ...any) error {
	return d.tc.GetDB().First(dest, conditions...).Error
}

// Truncate empties table, bypassing soft deletes and hooks.
func (d *DatabaseHelper) Truncate(table string) error {
	db := d.tc.GetDB()
	return db.Exec("DELETE FROM " + db.Statement.Quote(table)).Error
}
