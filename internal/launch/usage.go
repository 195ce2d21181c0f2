package launch

// Usage is printed for "-h" and "--help".
const Usage = `Usage: ann-launch [options]

Launches the training entry point with the cluster-provided directories.

Options:
  -d, --data-dir <path>          dataset directory, passed as --data_dir
  -l, --log-dir <path>           log directory, passed as --log_dir
  -p, --config-file-dir <path>   directory appended to the module search path
  -h, --help                     print this message and exit with status 1
`
