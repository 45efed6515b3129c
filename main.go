package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"DESLab/cripta"

	"golang.org/x/term"
)

/*
Шифрование файла DES в режиме CBC (ключ будет сгенерирован и выведен)
go run . -e -m=cbc input.txt output.enc

Дешифрование файла
go run . -d -k="0123456789ABCDEF" output.enc input.txt

Шифрование с паролем вместо ключа (Argon2id, соль хранится в файле)
go run . -e -passphrase input.txt output.enc

Проверочное значение ключа (KCV)
go run . -kcv -k="0123456789ABCDEF"

Режимы шифрования: ECB, CBC
Режимы набивки: count (по умолчанию), pkcs7, none
Параллельная обработка: ECB и дешифрование CBC
*/

const passphraseEnv = "DESLAB_PASSPHRASE"

type options struct {
	encrypt    bool
	decrypt    bool
	showKCV    bool
	mode       string
	padding    string
	keyHex     string
	ivHex      string
	passphrase bool
	parallel   bool
	inputFile  string
	outputFile string
}

func main() {
	encryptFlag := flag.Bool("e", false, "Режим шифрования")
	decryptFlag := flag.Bool("d", false, "Режим дешифрования")
	kcvFlag := flag.Bool("kcv", false, "Вывести проверочное значение ключа и выйти")
	modeFlag := flag.String("m", "cbc", "Режим шифрования: ecb, cbc")
	paddingFlag := flag.String("p", "count", "Режим набивки: count, pkcs7, none")
	keyFlag := flag.String("k", "", "Ключ шифрования в hex (если не указан, будет сгенерирован)")
	ivFlag := flag.String("iv", "", "Вектор инициализации в hex (если не указан, будет сгенерирован)")
	passphraseFlag := flag.Bool("passphrase", false, "Получить ключ из пароля ($"+passphraseEnv+" или ввод с терминала)")
	parallelFlag := flag.Bool("parallel", false, "Использовать параллельную обработку (ECB, дешифрование CBC)")

	flag.Parse()

	opts := options{
		encrypt:    *encryptFlag,
		decrypt:    *decryptFlag,
		showKCV:    *kcvFlag,
		mode:       *modeFlag,
		padding:    *paddingFlag,
		keyHex:     *keyFlag,
		ivHex:      *ivFlag,
		passphrase: *passphraseFlag,
		parallel:   *parallelFlag,
	}

	if !opts.showKCV && opts.encrypt == opts.decrypt {
		fmt.Println("Использование:")
		fmt.Println("  Шифрование: go run . -e -m=cbc input.txt output.enc")
		fmt.Println("  Дешифрование: go run . -d -k=<hex> input.enc output.txt")
		fmt.Println("\nФлаги:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if !opts.showKCV {
		args := flag.Args()
		if len(args) != 2 {
			fmt.Println("Ошибка: необходимо указать входной и выходной файлы")
			os.Exit(1)
		}
		opts.inputFile = args[0]
		opts.outputFile = args[1]

		if _, err := os.Stat(opts.inputFile); os.IsNotExist(err) {
			log.Fatalf("Ошибка: входной файл '%s' не существует", opts.inputFile)
		}
	}

	startTime := time.Now()

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("Ошибка: %v", err)
	}

	if !opts.showKCV {
		fmt.Printf("  Время выполнения: %v\n", time.Since(startTime))
	}
}

func run(opts options, out io.Writer) error {
	switch {
	case opts.showKCV:
		return printKCV(opts, out)
	case opts.encrypt:
		return encryptFile(opts, out)
	default:
		return decryptFile(opts, out)
	}
}

func printKCV(opts options, out io.Writer) error {
	if opts.keyHex == "" {
		return errors.New("для вывода KCV необходимо указать ключ (-k)")
	}

	key, err := parseHexString(opts.keyHex, cripta.KeySize)
	if err != nil {
		return fmt.Errorf("ошибка работы с ключом: %w", err)
	}

	kcv, err := cripta.KeyCheckValueForKey(key)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "KCV: %X\n", kcv[:])
	return nil
}

func encryptFile(opts options, out io.Writer) error {
	mode, err := cripta.ParseCipherMode(opts.mode)
	if err != nil {
		return err
	}
	padding, err := cripta.ParsePaddingMode(opts.padding)
	if err != nil {
		return err
	}

	var key, salt []uint8
	switch {
	case opts.passphrase:
		salt, err = cripta.NewSalt()
		if err != nil {
			return err
		}
		key, err = keyFromPassphrase(salt)
		if err != nil {
			return err
		}
	case opts.keyHex != "":
		key, err = parseHexString(opts.keyHex, cripta.KeySize)
		if err != nil {
			return fmt.Errorf("ошибка работы с ключом: %w", err)
		}
	}

	var iv []uint8
	if opts.ivHex != "" {
		iv, err = parseHexString(opts.ivHex, cripta.BlockSize)
		if err != nil {
			return fmt.Errorf("ошибка работы с IV: %w", err)
		}
	}

	ctx, err := cripta.NewDESContext(key, mode, iv, opts.parallel)
	if err != nil {
		return fmt.Errorf("ошибка создания контекста шифрования: %w", err)
	}

	if err := ctx.EncryptFile(opts.inputFile, opts.outputFile, padding, salt); err != nil {
		return fmt.Errorf("ошибка шифрования: %w", err)
	}

	fmt.Fprintf(out, "Файл успешно зашифрован: %s -> %s\n", opts.inputFile, opts.outputFile)
	fmt.Fprintf(out, "\nИнформация:\n")
	fmt.Fprintf(out, "  Режим: %v\n", ctx.Mode())
	fmt.Fprintf(out, "  Набивка: %v\n", padding)
	fmt.Fprintf(out, "  Параллельная обработка: %v\n", ctx.Parallel())
	if !opts.passphrase {
		fmt.Fprintf(out, "  Ключ: %x\n", ctx.Key())
	}
	if ctx.Mode() != cripta.CipherModeECB {
		fmt.Fprintf(out, "  IV: %x\n", ctx.IV())
	}

	return nil
}

func decryptFile(opts options, out io.Writer) error {
	env, err := cripta.ReadEnvelopeFile(opts.inputFile)
	if err != nil {
		return err
	}

	var key []uint8
	switch {
	case opts.passphrase:
		if len(env.Salt) == 0 {
			return errors.New("файл зашифрован не паролем: укажите ключ (-k)")
		}
		key, err = keyFromPassphrase(env.Salt)
		if err != nil {
			return err
		}
	case opts.keyHex != "":
		key, err = parseHexString(opts.keyHex, cripta.KeySize)
		if err != nil {
			return fmt.Errorf("ошибка работы с ключом: %w", err)
		}
	default:
		return errors.New("для дешифрования необходимо указать ключ (-k) или пароль (-passphrase)")
	}

	ctx, err := cripta.NewDESContext(key, env.Mode, env.IV[:], opts.parallel)
	if err != nil {
		return fmt.Errorf("ошибка создания контекста шифрования: %w", err)
	}

	plaintext, err := ctx.Open(env)
	if err != nil {
		return fmt.Errorf("ошибка дешифрования: %w", err)
	}

	if err := os.WriteFile(opts.outputFile, plaintext, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}

	fmt.Fprintf(out, "Файл успешно дешифрован: %s -> %s\n", opts.inputFile, opts.outputFile)
	fmt.Fprintf(out, "  Режим: %v\n", env.Mode)
	return nil
}

// keyFromPassphrase берет пароль из окружения или запрашивает его у терминала
func keyFromPassphrase(salt []uint8) ([]uint8, error) {
	passphrase := []byte(os.Getenv(passphraseEnv))

	if len(passphrase) == 0 {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("пароль не задан: установите $%s или запустите в терминале", passphraseEnv)
		}

		fmt.Fprint(os.Stderr, "Пароль: ")
		read, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		passphrase = read
	}

	return cripta.DeriveKey(passphrase, salt)
}

// parseHexString парсит hex строку в байты
func parseHexString(hexStr string, expectedLength int) ([]byte, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("неверный hex формат: %w", err)
	}

	if len(data) != expectedLength {
		return nil, fmt.Errorf("неверная длина: ожидается %d байт, получено %d", expectedLength, len(data))
	}

	return data, nil
}
