package dossier

var Latin1 = latin1
