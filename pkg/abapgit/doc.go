// Package abapgit serializes flat ABAP structures into the abapGit XML
// dialect and reads such documents back.
//
// A document looks like:
//
//	<?xml version="1.0" encoding="utf-8"?>
//	<abapGit version="v1.0.0" serializer="LCL_OBJECT_DEVC" serializer_version="v1.0.0">
//	 <asx:abap xmlns:asx="http://www.sap.com/abapxml" version="1.0">
//	  <asx:values>
//	   <DEVC>
//	    <CTEXT>Package</CTEXT>
//	   </DEVC>
//	  </asx:values>
//	 </asx:abap>
//	</abapGit>
//
// Field order follows the schema declaration. Schemas are either built
// explicitly with NewSchema or compiled from Go structs with SchemaOf:
//
//	type devc struct {
//	    _     struct{} `abap:"DEVC"`
//	    CText string   `abap:"CTEXT"`
//	}
//
//	err := abapgit.WithWriter(out, "LCL_OBJECT_DEVC", func(w *abapgit.Writer) error {
//	    return w.AddStruct(devc{CText: "Package"})
//	})
package abapgit
