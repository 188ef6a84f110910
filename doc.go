// Package unisem composes independently authored semantic models into one
// unified semantic model.
//
// The engine is a chain of pure stages:
//
//	raw YAML documents
//	        ↓
//	   compiler/load      (Parse, Check)
//	        ↓
//	   compiler/resolve   (BuildIndex)
//	        ↓
//	   compiler/validate  (ValidateRelationship, ValidateMetric)
//	        ↓
//	   compiler/compose   (Compose)
//	        ↓
//	   compiler/emit      (Serialize, Deserialize)
//
// The compiler package wires the stages into a single Compose call.
//
// # Error Handling
//
// Failures come in two classes. Fatal errors abort the composition and no
// partial model is returned:
//
//   - ParseError: malformed or structurally invalid document
//   - DuplicateModelNameError: two selected models share a name
//   - EmptyCompositionError: no model was selected
//
// Advisory findings are collected as Issues and returned next to a
// best-effort unified model:
//
//	res, err := compiler.Compose(req)
//	if unisem.IsFatal(err) {
//	    // blocking message
//	}
//	for _, issue := range res.Issues {
//	    // dismissible warning
//	}
package unisem
