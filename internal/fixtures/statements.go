package fixtures

// SantanderLines is a Santander card statement as the PDF text layer
// renders it: one printed line per text row.
func SantanderLines() []string {
	return []string{
		"BANCO SANTANDER URUGUAY",
		"ESTADO DE CUENTA TARJETA DE CREDITO",
		"TITULAR JUAN PEREZ",
		"SALDO ANTERIOR 741,96",
		"07/12/2025 399 PAGOS 741,96-",
		"10/12/2025 399 SUPERMERCADO TATA 2/6 1.500,00",
		"12/12/2025 399 FARMACIA SAN ROQUE 320,50",
		"15/12/2025 399 LEY INCL FINANC 19210 45,20-",
		"15/12/2025 399 LEY INCL 19210 10,00-",
		"18/12/2025 399 TIENDA INGLESA 1/3 900,00",
		"LÍMITE DE COMPRA 80.000,00",
		"20/12/2025 399 MERCADOPAGO*COMPRA 1.234,56",
		"10/01/2026 INTERESES FINANCIEROS 120,00",
		"10/01/2026 I.V.A. 22% $ 70,40",
		"10/01/2026 MULTA POR MORA",
		"50,00",
		"07/12/2025123 ILEGIBLE",
		"TOTAL DEV LEY 55,20",
		"SALDO CONTADO 4.140,26",
		"P.MINIMO: 1.200,00",
		"P.CONTADO: 4.140,26",
	}
}

// ItauLines is an Itaú card statement text layer.
func ItauLines() []string {
	return []string{
		"ITAÚ TARJETAS",
		"SALDO DEL ESTADO DE CUENTA ANTERIOR 12.000,00",
		"05 11 25 1234 PAGOS 12.000,00-",
		"08 11 25 1234 DISCO 3/12 2.450,00",
		"10 11 25 1234 AMAZON MKTPLACE 1.200,00 30,00",
		"12 11 25 SEGURO DE VIDA 150,00 5,00",
		"15 11 25 1234 CAFE BRASILERO 380,00",
		"UD. HA GENERADO 120 MILLAS",
	}
}

// ScotiabankLines is a Scotiabank statement, which stacks date, detail and
// amounts on separate lines.
func ScotiabankLines() []string {
	return []string{
		"SCOTIABANK URUGUAY",
		"Escaneá los códigos de barras de tus comprobantes",
		"Cuenta 0001",
		"Movimientos del periodo",
		"03/11/25",
		"PAGO",
		"5.000,00-",
		"04/11/25",
		"PEDIDOSYA 2/3",
		"850,00",
		"05/11/25",
		"NETFLIX.COM",
		"0,00 15,99",
		"DEVOLUCION COMPRA",
		"200,00-",
		"06/11/25",
		"TOTAL TARJETA",
		"7.000,00",
	}
}

// BROUCardRows is the BROU card movements export: a preamble that mentions
// the issue date, the movements table, and a totals footer.
func BROUCardRows() [][]interface{} {
	return [][]interface{}{
		{"Estado de cuenta tarjeta BROU"},
		{"Fecha de emisión", "15/01/2026"},
		{},
		{"Fecha", "Tarjeta", "Descripción", "Importe Origen", "Importe $", "Importe U$S", "Notas"},
		{"05/12/2025", "1234", "TATA 2/6", "", "1.500,00", "", ""},
		{"07/12/2025", "1234", "NETFLIX.COM", "", "", "15,99", ""},
		{"10/12/2025", "1234", "ANCAP", "", "2.000,50", "", ""},
		{},
		{"12/12/2025", "1234", "DEVOLUCION TIENDA", "", "-300,00", "", ""},
		{"15/12/2025", "1234", "TIENDA INGLESA 1/3", "", "900,00", "", ""},
		{"", "", "TOTAL", "", "4.100,50", "15,99", ""},
	}
}

// BROUSavingsRows is the BROU savings account export.
func BROUSavingsRows() [][]interface{} {
	return [][]interface{}{
		{"Caja de ahorro pesos"},
		{"Fecha de consulta", "31/01/2026"},
		{"Fecha", "Descripción", "Documento", "Débito", "Crédito", "Saldo"},
		{"02/01/2026", "SALDO INICIAL", "", "", "", "10.000,00"},
		{"03/01/2026", "COMPRA POS", "123", "1.200,00", "", "8.800,00"},
		{"05/01/2026", "TRANSFERENCIA RECIBIDA", "", "", "5.000,00", "13.800,00"},
		{"31/01/2026", "SALDO FINAL", "", "", "", "13.800,00"},
	}
}
