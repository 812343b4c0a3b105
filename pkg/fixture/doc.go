// SPDX-License-Identifier: MPL-2.0

// Package fixture is the base for shell-driven tests.
//
// A Fixture bundles a lazily created shell Session, temp-file Manager and
// Settings bound to one test. Suites embed it and run the hooks with Setup:
//
//	type suite struct {
//		*fixture.Fixture
//	}
//
//	func (s *suite) SetUp() {
//		s.Fixture.SetUp()
//		s.Shell().SetPreExecutionCommands("source ./lib.sh")
//	}
//
//	func TestGreet(t *testing.T) {
//		s := &suite{Fixture: fixture.New(t)}
//		fixture.Setup(t, s)
//		s.AssertExecutionEquals([]string{"hello world"}, "greet world")
//	}
package fixture
