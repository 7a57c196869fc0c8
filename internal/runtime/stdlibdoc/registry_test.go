package stdlibdoc

import "testing"

func TestGetNamespacesSorted(t *testing.T) {
	namespaces := GetNamespaces()
	for i := 1; i < len(namespaces); i++ {
		if namespaces[i-1] > namespaces[i] {
			t.Fatalf("expected sorted namespaces, got %v", namespaces)
		}
	}
	if len(namespaces) != len(Registry) {
		t.Errorf("expected %d namespaces, got %d", len(Registry), len(namespaces))
	}
}

func TestGetFunctionsUnknownNamespaceReturnsNil(t *testing.T) {
	if fns := GetFunctions("nope"); fns != nil {
		t.Errorf("expected nil for unknown namespace, got %v", fns)
	}
}

func TestFindLocatesFunctionAcrossCategories(t *testing.T) {
	fn, ok := Find("str.split")
	if !ok {
		t.Fatal("expected to find str.split")
	}
	if fn.Signature != "str.split(value: string!, sep: string!) -> list!" {
		t.Errorf("unexpected signature: %s", fn.Signature)
	}
}

func TestFindMissingFunction(t *testing.T) {
	if _, ok := Find("nonexistent.fn"); ok {
		t.Error("expected Find to report false for a missing function")
	}
}

func TestEverySignatureStartsWithItsName(t *testing.T) {
	for category, fns := range Registry {
		for _, fn := range fns {
			prefix := fn.Name + "("
			if len(fn.Signature) < len(prefix) || fn.Signature[:len(prefix)] != prefix {
				t.Errorf("%s.%s: signature %q doesn't start with %q", category, fn.Name, fn.Signature, prefix)
			}
		}
	}
}

func TestEveryFunctionHasADescription(t *testing.T) {
	for category, fns := range Registry {
		for _, fn := range fns {
			if fn.Description == "" {
				t.Errorf("%s.%s is missing a description", category, fn.Name)
			}
		}
	}
}

func TestTotalFunctionCountMatchesRegistry(t *testing.T) {
	total := 0
	for _, fns := range Registry {
		total += len(fns)
	}
	if got := TotalFunctionCount(); got != total {
		t.Errorf("expected %d, got %d", total, got)
	}
}

func TestEvaluatorResidentFunctionsAreDocumented(t *testing.T) {
	for _, name := range []string{"map", "reduce", "filter"} {
		if _, ok := Find(name); !ok {
			t.Errorf("expected %s to be documented", name)
		}
	}
}
