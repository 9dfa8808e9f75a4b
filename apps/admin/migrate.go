package main

import "fmt"

func (cli *commandLine) migrate() error {
	converted, err := cli.db.ImportLegacy()
	if err != nil {
		return err
	}
	if converted {
		fmt.Fprintln(cli.out, "legacy wide-form files converted")
	} else {
		fmt.Fprintln(cli.out, "nothing to convert")
	}
	return nil
}
