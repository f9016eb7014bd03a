package cmd

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"golang.org/x/tools/go/ast/astutil"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var moduleName string

// newModuleCmd represents the new-module command
var newModuleCmd = &cobra.Command{
	Use:   "new-module",
	Short: "Scaffold a new application module",
	Long: `Creates a new module with boilerplate for the module definition and a typed
event declaration, and automatically registers it with the application.`,
	Run: func(cmd *cobra.Command, args []string) {
		if moduleName == "" {
			log.Fatal("Module name is required: --name=<module-name>")
		}

		if err := generateModule(moduleName); err != nil {
			log.Fatalf("Failed to generate module: %v", err)
		}

		if err := updateModulesFile(moduleName); err != nil {
			log.Println("Automatic file update failed. Please register the module manually:")
			log.Printf(" - modules.go error: %v", err)
			printNextSteps(moduleName) // Fallback to printing instructions
		} else {
			printSuccessMessage(moduleName)
		}
	},
}

func init() {
	rootCmd.AddCommand(newModuleCmd)
	newModuleCmd.Flags().StringVarP(&moduleName, "name", "n", "", "The name of the new module (e.g., 'telemetry')")
}

type TemplateData struct {
	Name       string
	PascalName string
}

func generateModule(name string) error {
	caser := cases.Title(language.English)
	data := TemplateData{
		Name:       name,
		PascalName: caser.String(name),
	}

	moduleDir := filepath.Join("internal", "modules", name)
	if err := os.MkdirAll(filepath.Join(moduleDir, "events"), 0755); err != nil {
		return fmt.Errorf("failed to create module directory: %w", err)
	}

	// Generate module.go
	if err := generateFile(filepath.Join(moduleDir, "module.go"), moduleTemplate, data); err != nil {
		return err
	}

	// Generate events/events.go
	if err := generateFile(filepath.Join(moduleDir, "events", "events.go"), eventsTemplate, data); err != nil {
		return err
	}

	return nil
}

func generateFile(path string, tmpl string, data TemplateData) error {
	t, err := template.New("").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func updateModulesFile(name string) error {
	modulesPath := "internal/app/modules.go"
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, modulesPath, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", modulesPath, err)
	}

	// Add the new module import
	newImportPath := fmt.Sprintf("github.com/skiffworks/skiff/internal/modules/%s", name)
	astutil.AddImport(fset, node, newImportPath)

	// Find the NewModules function and add the new module to its return statement
	ast.Inspect(node, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "NewModules" {
			return true
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			ret, ok := n.(*ast.ReturnStmt)
			if !ok {
				return true
			}

			// The slice literal the function returns
			compLit, ok := ret.Results[0].(*ast.CompositeLit)
			if !ok {
				return false
			}

			// <name>.New(<name>.Dependencies{Bus: deps.Bus, Params: deps.Params})
			newElement := &ast.CallExpr{
				Fun: &ast.SelectorExpr{
					X:   ast.NewIdent(name),
					Sel: ast.NewIdent("New"),
				},
				Args: []ast.Expr{
					&ast.CompositeLit{
						Type: &ast.SelectorExpr{
							X:   ast.NewIdent(name),
							Sel: ast.NewIdent("Dependencies"),
						},
						Elts: []ast.Expr{
							&ast.KeyValueExpr{
								Key:   ast.NewIdent("Bus"),
								Value: &ast.SelectorExpr{X: ast.NewIdent("deps"), Sel: ast.NewIdent("Bus")},
							},
							&ast.KeyValueExpr{
								Key:   ast.NewIdent("Params"),
								Value: &ast.SelectorExpr{X: ast.NewIdent("deps"), Sel: ast.NewIdent("Params")},
							},
						},
					},
				},
			}

			compLit.Elts = append(compLit.Elts, newElement)
			return false
		})
		return false
	})

	return writeASTToFile(fset, node, modulesPath)
}

func printSuccessMessage(name string) {
	fmt.Printf("✅ Successfully created module '%s' in internal/modules/%s/\n", name, name)
	fmt.Println("✅ Registered the new module in 'internal/app/modules.go':")
	fmt.Println("-----------------------------------------------------------------")
	fmt.Printf(`
%s.New(%s.Dependencies{Bus: deps.Bus, Params: deps.Params}),
`, name, name)
	fmt.Println("-----------------------------------------------------------------")
	fmt.Println("Ready to start building your new module!")
}

func printNextSteps(name string) {
	fmt.Printf("✅ Successfully created module '%s' in internal/modules/%s/\n\n", name, name)
	fmt.Println("Next steps:")
	fmt.Println("-----------------------------------------------------------------")
	fmt.Print("\nRegister the new module in 'internal/app/modules.go':\n\n")
	fmt.Printf(`
import "github.com/skiffworks/skiff/internal/modules/%s"

// Add to the NewModules function's return slice:
%s.New(%s.Dependencies{Bus: deps.Bus, Params: deps.Params}),
`, name, name, name)
	fmt.Println("-----------------------------------------------------------------")
}

func writeASTToFile(fset *token.FileSet, node *ast.File, filename string) error {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, node); err != nil {
		return fmt.Errorf("failed to format AST: %w", err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", filename, err)
	}
	return nil
}

const moduleTemplate = `package {{.Name}}

import (
	"context"
	"log/slog"

	"github.com/skiffworks/skiff/internal/module"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
)

// Module wires the {{.Name}} feature into the application lifecycle.
type Module struct {
	module.BaseModule

	bus    *pubsub.Bus
	params *param.Store
}

// Dependencies holds all the services that the module requires.
type Dependencies struct {
	Bus    *pubsub.Bus
	Params *param.Store
}

// New creates a new instance of the module.
func New(deps Dependencies) *Module {
	return &Module{
		bus:    deps.Bus,
		params: deps.Params,
	}
}

// Name returns the module's unique identifier.
func (m *Module) Name() string {
	return "{{.Name}}"
}

// Register is called during application startup. Declare the module's
// parameters here.
func (m *Module) Register(reg *registry.Registry) error {
	slog.Info("Registering {{.PascalName}} module")
	return nil
}

// Boot is called after all modules have registered. Start publishers,
// subscribers, and background work here.
func (m *Module) Boot(ctx context.Context, reg *registry.Registry) error {
	slog.Info("Booting {{.PascalName}} module")
	return nil
}
`

const eventsTemplate = `package events

import "github.com/skiffworks/skiff/internal/pubsub"

// Ping is a placeholder payload for the module's first event. Replace it
// with the module's real types.
type Ping struct {
	Note string
}

// PingEvent declares the module's first typed topic and registers it in the
// topic directory. Rename or remove it as the module takes shape.
var PingEvent = pubsub.NewEvent[Ping]("/{{.Name}}/ping", "Placeholder event for the {{.Name}} module")
`
