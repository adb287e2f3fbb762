package tg

import (
	"regexp"
	"strings"
)

var reEthAddr = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func IsEthAddress(s string) bool {
	return reEthAddr.MatchString(strings.TrimSpace(s))
}

// SplitAddressArg выделяет адрес и остаток ("/add_address 0x... Alice Smith"
// -> адрес + имя "Alice Smith"). Имя может быть пустым.
func SplitAddressArg(args string) (address, rest string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", ""
	}

	parts := strings.SplitN(args, " ", 2)
	address = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return address, rest
}

// CommandArgs срезает сам слеш-команду и @mention бота, оставляя аргументы.
func CommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}

	parts := strings.SplitN(text, " ", 2)
	if len(parts) == 1 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
