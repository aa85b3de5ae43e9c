package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const factoryImport = "github.com/galaplate/foundry/database/factory"

type MakeFactoryCommand struct {
	BaseCommand

	Dir          string
	Package      string
	ModelsImport string
}

func (c *MakeFactoryCommand) GetSignature() string {
	return "make:factory"
}

func (c *MakeFactoryCommand) GetDescription() string {
	return "Create a new model factory"
}

func (c *MakeFactoryCommand) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Dir, "dir", "db/factories", "directory of the generated factory")
	fs.StringVar(&c.Package, "package", "factories", "package name of the generated factory")
	fs.StringVar(&c.ModelsImport, "models", "", "import path of the models package (default <module>/models)")
}

func (c *MakeFactoryCommand) Execute(args []string) error {
	var modelName string

	if len(args) == 0 {
		modelName = c.AskRequired("Enter model name (e.g., User, Product)")
	} else {
		modelName = args[0]
	}

	structName := c.FormatStructName(modelName)
	if structName == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	return c.createFactory(structName)
}

func (c *MakeFactoryCommand) createFactory(structName string) error {
	dir := c.Dir
	if dir == "" {
		dir = "db/factories"
	}
	pkg := c.Package
	if pkg == "" {
		pkg = "factories"
	}

	filePath := filepath.Join(dir, toSnakeCase(structName)+"_factory.go")
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("factory file %s already exists", filePath)
	}

	modelsImport := c.ModelsImport
	if modelsImport == "" {
		moduleName, err := c.GetModuleName()
		if err != nil {
			return fmt.Errorf("failed to get module name: %w", err)
		}
		modelsImport = moduleName + "/models"
	}

	factoryName := structName + "Factory"

	if err := c.GenerateFromStub("factory.go.stub", filePath, FactoryTemplate{
		Package:        pkg,
		FactoryName:    factoryName,
		DefinitionName: strings.ToLower(structName[:1]) + structName[1:] + "Definition",
		ModelName:      structName,
		ModelsImport:   modelsImport,
		FactoryImport:  factoryImport,
		Timestamp:      time.Now().Format("2006-01-02 15:04:05"),
	}); err != nil {
		return err
	}

	c.PrintSuccess("Factory created successfully: " + filePath)
	c.PrintInfo("Model factory: " + factoryName)
	c.PrintInfo("Model: " + structName)

	return nil
}

type FactoryTemplate struct {
	Package        string
	FactoryName    string
	DefinitionName string
	ModelName      string
	ModelsImport   string
	FactoryImport  string
	Timestamp      string
}

func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
