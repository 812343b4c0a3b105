// SPDX-License-Identifier: MPL-2.0

// Package harness holds process-wide test harness switches.
//
// Switches are applied once, typically from TestMain:
//
//	func TestMain(m *testing.M) {
//		opts, err := harness.OptionsFromSettings(settings.Open("shtest"))
//		if err != nil {
//			fmt.Fprintln(os.Stderr, err)
//			os.Exit(2)
//		}
//		os.Exit(harness.Main(m, opts))
//	}
package harness
