package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/shaderlink/compiler"
	"github.com/gogpu/shaderlink/link"
	"github.com/gogpu/shaderlink/program"
	"github.com/gogpu/shaderlink/rtconst"
	"github.com/gogpu/shaderlink/stage"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <module.json>...",
		Short: "Link compiled stage modules into a program",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLink,
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "program file (default: stdout)")
	flags.String("glslang", "glslangValidator", "path of the glslangValidator executable")
	flags.String("target-env", "vulkan1.2", "SPIR-V target environment")
	flags.StringSliceP("include", "I", nil, "include directory")
	flags.StringSliceP("define", "D", nil, "preprocessor macro NAME[=VALUE]")
	flags.StringSlice("priority", nil, "descriptor set priority set=N, lower first")
	flags.Bool("lenient", false, "skip placeholder validation")
	flags.Int("concurrency", 0, "maximum stages compiled at once (0: unlimited)")
	return cmd
}

func readModules(paths []string) (*link.ModuleSet, error) {
	set := link.NewModuleSet()
	registry := rtconst.NewRegistry()
	for _, path := range paths {
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		mod, err := stage.DecodeModule(f, registry)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := set.Add(mod); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return set, nil
}

func runLink(cmd *cobra.Command, args []string) error {
	set, err := readModules(args)
	if err != nil {
		return err
	}
	priorities, err := parsePriorities(viper.GetStringSlice("priority"))
	if err != nil {
		return err
	}

	glslang := compiler.DefaultGlslang()
	glslang.Path = viper.GetString("glslang")
	glslang.TargetEnv = viper.GetString("target-env")
	glslang.Logger = logger

	data, err := link.LinkSet(cmd.Context(), set, link.Settings{
		Compiler: glslang,
		Options: compiler.Options{
			IncludeDirs: viper.GetStringSlice("include"),
			Defines:     viper.GetStringSlice("define"),
		},
		SetPriorities: priorities,
		Lenient:       viper.GetBool("lenient"),
		Concurrency:   viper.GetInt("concurrency"),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := viper.GetString("output"); out != "" {
		f, err := createFile(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := program.Encode(w, data); err != nil {
		return err
	}
	logger.Info().Int("stages", len(data.Stages)).Msg("linked program")
	return nil
}
