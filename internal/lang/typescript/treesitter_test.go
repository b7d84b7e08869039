//go:build cgo

package typescript

import (
	"testing"
)

func TestASTImportsSkipComments(t *testing.T) {
	content := "// import nope from './commented'\n" +
		"/* const x = require('./also-commented') */\n" +
		"import real from './real';\n"
	occs, ok := astImports("src/app.ts", []byte(content))
	if !ok {
		t.Fatal("expected AST parse to succeed")
	}
	if len(occs) != 1 || occs[0].spec != "./real" {
		t.Fatalf("got %+v, want only ./real", occs)
	}
}

func TestASTImportsTSX(t *testing.T) {
	content := "import { Button } from './button';\n" +
		"export default function App() {\n" +
		"  return <Button label=\"ok\" />;\n" +
		"}\n"
	occs, ok := astImports("src/App.tsx", []byte(content))
	if !ok {
		t.Fatal("expected AST parse to succeed")
	}
	if len(occs) != 1 || occs[0].spec != "./button" {
		t.Fatalf("got %+v, want only ./button", occs)
	}
}

func TestASTImportsSpanInsideQuotes(t *testing.T) {
	content := `import x from "./mod";`
	occs, ok := astImports("a.js", []byte(content))
	if !ok || len(occs) != 1 {
		t.Fatalf("got ok=%v occs=%+v", ok, occs)
	}
	occ := occs[0]
	if got := content[occ.start:occ.end]; got != "./mod" {
		t.Errorf("span text = %q, want ./mod", got)
	}
	if content[occ.start-1] != '"' || content[occ.end] != '"' {
		t.Error("span should sit between the quotes")
	}
}

func TestASTAvailable(t *testing.T) {
	if !ASTAvailable() {
		t.Fatal("ASTAvailable should report true under cgo")
	}
}
