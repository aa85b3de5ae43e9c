package testing

// ResetDatabase re-creates the model tables before every test.
type ResetDatabase struct {
	TestCase
}

func (r *ResetDatabase) SetupTest() {
	r.EnableRefreshDatabase()
	r.RefreshDatabaseBetweenTests()
	r.TestCase.SetupTest()
}

// RefreshDatabaseOnce re-creates the model tables for the first test only;
// later tests see the rows earlier ones left behind.
type RefreshDatabaseOnce struct {
	TestCase
}

func (r *RefreshDatabaseOnce) SetupTest() {
	r.EnableRefreshDatabase()
	r.TestCase.SetupTest()
}
