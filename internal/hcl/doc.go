// Package hcl loads a graph topology from HCL files.
//
// A topology is a set of `node` blocks:
//
//	node "ingest" {
//	  id         = "5b0e4a4e-1d7f-4f55-9f54-0d5a1c1f0a01"
//	  action     = "print"
//	  dependents = ["store"]
//	  settings {
//	    prefix = "ingest"
//	  }
//	}
//
// Settings attributes are evaluated without variables and converted to
// container values: strings become Text, bools Boolean, whole numbers that fit
// in 32 bits Integer and every other number Float.
package hcl
