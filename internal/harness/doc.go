// Package harness runs expression test suites end to end: parse, bind,
// reduce, then compare against expectations and golden snapshots.
//
// # Suite Format
//
// Suites are YAML files:
//
//	name: arith
//	description: "What this suite checks"
//	catalog: ../catalog        # optional CUE user functions
//	globals:
//	  x: i8
//	  s: i8*
//	cases:
//	  - name: fold_constants
//	    expr: "1 + 2 + x"
//	    expect:
//	      type: i8
//	      reduced: "Add(x, 3:i8)"
//	      diagnostics: []       # binder codes, in order
//	      warnings: []          # reducer codes, in order
//
// Unknown fields are rejected, so a misspelled key fails loudly instead of
// silently skipping a check.
//
// # Deterministic Runs
//
// Every case binds with a fixed session id and is numbered by a
// testutil.Sequencer, so running a suite twice gives identical results
// and golden snapshots compare byte for byte. Snapshots live in
// testdata/golden/{suite}.golden and are regenerated with -update.
//
// # Usage
//
//	suite, err := harness.LoadCases("testdata/cases/arith.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(suite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Errors {
//	    log.Println(e)
//	}
package harness
