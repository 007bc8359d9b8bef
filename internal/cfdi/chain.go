package cfdi

import (
	"strings"
)

// OriginalChain builds the pipe-delimited original chain (cadena original)
// over which the emitter seal is computed. The field order mirrors the
// serialized attribute order so the chain is as stable as the XML bytes.
func OriginalChain(c *Comprobante) string {
	fields := []string{
		c.Version,
		c.Fecha,
		c.Emisor.Rfc,
		c.Emisor.Nombre,
		c.Receptor.Rfc,
		c.Receptor.Nombre,
		c.SubTotal,
		c.Moneda,
		c.Total,
		c.TipoDeComprobante,
		c.LugarExpedicion,
	}

	for _, concepto := range c.Conceptos.Conceptos {
		fields = append(fields,
			concepto.ClaveProdServ,
			concepto.Cantidad,
			concepto.ClaveUnidad,
			concepto.Descripcion,
			concepto.ValorUnitario,
			concepto.Importe,
		)
	}

	cp := c.Complemento.CartaPorte
	fields = append(fields, cp.Version)
	if cp.IdCCP != "" {
		fields = append(fields, cp.IdCCP)
	}
	if cp.RegimenAduanero != "" {
		fields = append(fields, cp.RegimenAduanero)
	}
	if cp.RegimenesAduaneros != nil {
		for _, r := range cp.RegimenesAduaneros.Regimenes {
			fields = append(fields, r.RegimenAduanero)
		}
	}
	fields = append(fields, cp.TranspInternac, cp.TotalDistRec)

	for _, u := range cp.Ubicaciones.Ubicaciones {
		fields = append(fields,
			u.TipoUbicacion,
			u.FechaHoraSalidaLlegada,
			u.Domicilio.Estado,
			u.Domicilio.Pais,
			u.Domicilio.CodigoPostal,
		)
		if u.DistanciaRecorrida != "" {
			fields = append(fields, u.DistanciaRecorrida)
		}
	}

	fields = append(fields,
		cp.Mercancias.PesoBrutoTotal,
		cp.Mercancias.UnidadPeso,
		cp.Mercancias.NumTotalMercancias,
	)
	for _, m := range cp.Mercancias.Mercancias {
		fields = append(fields, m.BienesTransp, m.Cantidad, m.ClaveUnidad, m.PesoEnKg)
	}

	auto := cp.Mercancias.Autotransporte
	fields = append(fields,
		auto.PermSCT,
		auto.NumPermisoSCT,
		auto.IdentificacionVehicular.ConfigVehicular,
		auto.IdentificacionVehicular.PesoBrutoVehicular,
		auto.IdentificacionVehicular.PlacaVM,
		auto.IdentificacionVehicular.AnioModeloVM,
		auto.Seguros.AseguraRespCivil,
		auto.Seguros.PolizaRespCivil,
	)
	if auto.Remolques != nil {
		for _, r := range auto.Remolques.Remolques {
			fields = append(fields, r.SubTipoRem, r.Placa)
		}
	}

	for _, f := range cp.FiguraTransporte.TiposFigura {
		fields = append(fields, f.TipoFigura, f.RFCFigura, f.NombreFigura)
	}

	return "||" + strings.Join(fields, "|") + "||"
}
